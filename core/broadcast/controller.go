// Package broadcast implements the admin-gated two-phase mass send.
// Phase one arms a pending flag for the admin; phase two consumes the
// admin's next private message as the payload and fans it out to every known
// user, isolating per-recipient failures.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"github.com/mehradnfi/shadwbot/core/state"
	"log/slog"
)

// StateAwaitingPayload marks an admin whose next message is the broadcast
// payload.
const StateAwaitingPayload state.State = "broadcast_awaiting_payload"

// Outbox delivers one payload to one recipient. Implementations must honor
// the context deadline; a single unreachable recipient may not stall the
// whole pass.
type Outbox interface {
	Send(ctx context.Context, userID, text string) error
}

// Options bounds the fan-out.
type Options struct {
	// Workers is the number of concurrent senders.
	Workers int
	// SendTimeout bounds each individual recipient send.
	SendTimeout time.Duration
}

// Summary reports the outcome of one completed fan-out pass.
type Summary struct {
	Recipients int
	Sent       int
	Failed     int
	Took       time.Duration
}

// Controller owns the pending flag and runs the fan-out.
type Controller struct {
	store  *ledger.Store
	states state.Manager
	outbox Outbox
	opts   Options
}

// NewController wires the controller. The states manager holds the pending
// flag keyed by admin id, with clear-on-completion semantics.
func NewController(store *ledger.Store, states state.Manager, outbox Outbox, opts Options) *Controller {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	return &Controller{store: store, states: states, outbox: outbox, opts: opts}
}

// Arm marks the admin's next private message as the broadcast payload.
func (c *Controller) Arm(ctx context.Context, adminID string) {
	c.states.SetState(adminID, StateAwaitingPayload)
	logger.Info(ctx, "broadcast", "armed",
		slog.String("status", "ok"),
	)
}

// Armed reports whether the admin has a pending broadcast.
func (c *Controller) Armed(adminID string) bool {
	return c.states.GetState(adminID) == StateAwaitingPayload
}

// Disarm clears the pending flag without sending.
func (c *Controller) Disarm(adminID string) {
	c.states.ClearState(adminID)
}

// Run consumes the payload and fans it out to a snapshot of all known user
// ids. The pending flag is cleared unconditionally before the pass starts,
// so a failing pass can never leave the admin stuck armed. Per-recipient
// failures are counted, never propagated; the caller sends exactly one
// completion acknowledgment built from the returned summary.
func (c *Controller) Run(ctx context.Context, adminID, payload string) Summary {
	c.states.ClearState(adminID)

	recipients := c.store.UserIDs()
	start := time.Now()
	logger.Info(ctx, "broadcast", "fanout.start",
		slog.String("status", "ok"),
		slog.Int("recipients", len(recipients)),
	)

	var sent, failed atomic.Int64
	jobs := make(chan string)
	var wg sync.WaitGroup

	workers := c.opts.Workers
	if workers > len(recipients) && len(recipients) > 0 {
		workers = len(recipients)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for userID := range jobs {
				if err := c.send(ctx, userID, payload); err != nil {
					failed.Add(1)
					logger.Warn(ctx, "broadcast", "send.fail",
						slog.String("status", "fail"),
						slog.String("ledger_user", userID),
						slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
					)
					continue
				}
				sent.Add(1)
			}
		}()
	}
	for _, userID := range recipients {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()

	summary := Summary{
		Recipients: len(recipients),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
		Took:       logger.Took(start),
	}
	logger.Info(ctx, "broadcast", "fanout.done",
		slog.String("status", "ok"),
		slog.Int("recipients", summary.Recipients),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Took),
	)
	return summary
}

func (c *Controller) send(ctx context.Context, userID, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, c.opts.SendTimeout)
	defer cancel()
	return c.outbox.Send(sendCtx, userID, text)
}
