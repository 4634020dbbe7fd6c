// Package dispatch routes inbound chat events to handlers through an
// ordered rule table. It is transport-agnostic: the Telegram shell translates
// updates into Events and sends the returned Replies.
package dispatch

import "context"

// Kind classifies an inbound event.
type Kind string

const (
	// KindCommand is a slash command, possibly with a payload.
	KindCommand Kind = "command"
	// KindText is a plain text message.
	KindText Kind = "text"
	// KindContact is a shared contact card.
	KindContact Kind = "contact"
	// KindCallback is an inline keyboard callback.
	KindCallback Kind = "callback"
)

// ChatType separates private chats from everything else. Only private chats
// are dispatched; other scopes are silently ignored.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatOther   ChatType = "other"
)

// Event is one inbound chat event.
type Event struct {
	ChatID   int64
	UserID   string
	ChatType ChatType
	Kind     Kind
	// Command carries the slash command (with leading slash) for
	// KindCommand, or the callback key for KindCallback.
	Command string
	// Payload carries the command argument, the raw text, the callback
	// data, or the shared phone number, depending on Kind.
	Payload string
	// ContactOwner is the user id owning a shared contact. Contacts shared
	// on someone else's behalf are not accepted for registration.
	ContactOwner string
}

// Format hints how the transport should render the reply text.
type Format string

const (
	FormatPlain    Format = ""
	FormatMarkdown Format = "markdown"
)

// InlineButton describes one inline keyboard button.
type InlineButton struct {
	Text string
	Key  string
	Data string
}

// Keyboard is a transport-neutral keyboard specification.
type Keyboard struct {
	// RequestContact asks for the sender's contact via a single reply button.
	RequestContact bool
	// ContactLabel captions the contact request button.
	ContactLabel string
	// Buttons are reply keyboard rows of plain labels.
	Buttons [][]string
	// Inline are inline keyboard rows.
	Inline [][]InlineButton
	// Remove hides any visible reply keyboard.
	Remove bool
}

// Reply is one outbound reply request for the transport to deliver.
type Reply struct {
	ChatID   int64
	Text     string
	Keyboard *Keyboard
	Format   Format
}

// Handler processes one matched event and returns the replies to deliver.
type Handler func(ctx context.Context, ev Event) ([]Reply, error)
