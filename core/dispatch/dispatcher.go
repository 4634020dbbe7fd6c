package dispatch

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

// Rule binds a predicate to a handler. Rules are evaluated in registration
// order; the first match wins and nothing after it runs.
type Rule struct {
	// Name identifies the rule in summary logs.
	Name string
	// AdminOnly restricts the rule to the configured admin. For any other
	// sender the rule simply does not match, so the event falls through.
	AdminOnly bool
	Match     func(ev Event) bool
	Handle    Handler
}

// Options configures a Dispatcher.
type Options struct {
	// AdminID is the sole admin user id. Empty disables admin rules.
	AdminID string
	// CatchAll runs when no rule matches. Typically re-presents the menu.
	CatchAll Handler
}

// Dispatcher evaluates an ordered rule table against inbound events.
// Exactly one handler runs per event.
type Dispatcher struct {
	rules    []Rule
	adminID  string
	catchAll Handler
}

// New returns an empty dispatcher.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		adminID:  opts.AdminID,
		catchAll: opts.CatchAll,
	}
}

// Handle appends rules to the table, keeping declaration order.
func (d *Dispatcher) Handle(rules ...Rule) {
	for _, r := range rules {
		if r.Match == nil || r.Handle == nil {
			logger.Warn(logger.Background(), "dispatch", "rule.skip",
				slog.String("status", "skip"),
				slog.String("handler", normalizeRuleName(r.Name)),
			)
			continue
		}
		d.rules = append(d.rules, r)
	}
}

// IsAdmin reports whether the user id is the configured admin.
func (d *Dispatcher) IsAdmin(userID string) bool {
	return d.adminID != "" && userID == d.adminID
}

// Dispatch routes one event to the first matching rule and returns the
// handler's replies. Non-private chats are ignored. Handler errors are
// logged and swallowed here: per the error contract they never reach the
// transport layer.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) []Reply {
	if ev.ChatType != ChatPrivate {
		logger.Debug(ctx, "dispatch", "event.ignored",
			slog.String("status", "skip"),
			slog.String("chat_type", string(ev.ChatType)),
		)
		return nil
	}

	for _, rule := range d.rules {
		if rule.AdminOnly && !d.IsAdmin(ev.UserID) {
			continue
		}
		if !rule.Match(ev) {
			continue
		}
		return d.run(ctx, rule.Name, rule.Handle, ev)
	}

	if d.catchAll == nil {
		return nil
	}
	return d.run(ctx, "fallback", d.catchAll, ev)
}

func (d *Dispatcher) run(ctx context.Context, name string, h Handler, ev Event) []Reply {
	name = normalizeRuleName(name)
	ctx = logger.WithHandler(ctx, name)
	start := time.Now()

	replies, err := h(ctx, ev)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("handler", name),
		slog.Int("messages", len(replies)),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", name),
		)
	}
	logger.LogEvent(ctx, logger.Component("dispatch"), slog.LevelInfo, "handler.handled", attrs...)
	return replies
}

func normalizeRuleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		code := strings.TrimSpace(c.Code())
		if code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}

// Predicate helpers used to declare routing rules.

// OnCommand matches a slash command by name.
func OnCommand(command string) func(Event) bool {
	return func(ev Event) bool {
		return ev.Kind == KindCommand && ev.Command == command
	}
}

// OnTextEquals matches an exact text message, typically a reply button label.
func OnTextEquals(text string) func(Event) bool {
	return func(ev Event) bool {
		return ev.Kind == KindText && ev.Payload == text
	}
}

// OnContact matches a shared contact.
func OnContact() func(Event) bool {
	return func(ev Event) bool {
		return ev.Kind == KindContact
	}
}

// OnCallback matches an inline callback by key.
func OnCallback(key string) func(Event) bool {
	return func(ev Event) bool {
		return ev.Kind == KindCallback && ev.Command == key
	}
}

// Any matches every event. Combine with AdminOnly for consume-next rules.
func Any() func(Event) bool {
	return func(Event) bool { return true }
}
