// Package bot wires the session core together: the routing table, the
// handlers behind it, and the menus they present.
package bot

import (
	"strconv"
	"time"

	"github.com/mehradnfi/shadwbot/core/broadcast"
	"github.com/mehradnfi/shadwbot/core/dispatch"
	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/referral"
	"github.com/mehradnfi/shadwbot/core/session"
	"github.com/mehradnfi/shadwbot/core/state"
)

// Options carries the domain settings the app needs from configuration.
type Options struct {
	AdminID         int64
	BotUsername     string
	RewardPerInvite int64

	BroadcastWorkers     int
	BroadcastSendTimeout time.Duration
}

// App owns the dispatcher and the collaborators handlers work against.
type App struct {
	store      *ledger.Store
	states     state.Manager
	resolver   *session.Resolver
	graph      *referral.Graph
	controller *broadcast.Controller
	dispatcher *dispatch.Dispatcher
}

// New assembles the app around a loaded ledger store and an outbox for the
// broadcast fan-out.
func New(store *ledger.Store, outbox broadcast.Outbox, opts Options) *App {
	states := state.NewMemoryManager()
	a := &App{
		store:    store,
		states:   states,
		resolver: session.NewResolver(store),
		graph:    referral.NewGraph(store, opts.RewardPerInvite, opts.BotUsername),
		controller: broadcast.NewController(store, states, outbox, broadcast.Options{
			Workers:     opts.BroadcastWorkers,
			SendTimeout: opts.BroadcastSendTimeout,
		}),
	}
	a.dispatcher = dispatch.New(dispatch.Options{
		AdminID:  strconv.FormatInt(opts.AdminID, 10),
		CatchAll: a.handleFallback,
	})
	a.routes()
	return a
}

// Dispatcher exposes the routing table to the transport shell.
func (a *App) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Store exposes the ledger store for health reporting.
func (a *App) Store() *ledger.Store { return a.store }

// routes declares the routing table. Order matters: the armed-broadcast
// consumer must precede every other message rule so the admin's next message
// becomes the payload no matter what it says.
func (a *App) routes() {
	a.dispatcher.Handle(
		dispatch.Rule{
			Name:      "broadcast_payload",
			AdminOnly: true,
			Match:     a.matchArmedMessage,
			Handle:    a.handleBroadcastPayload,
		},
		dispatch.Rule{
			Name:   "start",
			Match:  dispatch.OnCommand("/start"),
			Handle: a.handleStart,
		},
		dispatch.Rule{
			Name:   "contact",
			Match:  dispatch.OnContact(),
			Handle: a.handleContact,
		},
		dispatch.Rule{
			Name:   "balance",
			Match:  dispatch.OnTextEquals(btnBalance),
			Handle: a.handleBalance,
		},
		dispatch.Rule{
			Name:   "services",
			Match:  dispatch.OnTextEquals(btnServices),
			Handle: a.handleServices,
		},
		dispatch.Rule{
			Name:   "invite",
			Match:  dispatch.OnTextEquals(btnInvite),
			Handle: a.handleInvite,
		},
		dispatch.Rule{
			Name:      "admin",
			AdminOnly: true,
			Match:     dispatch.OnCommand("/admin"),
			Handle:    a.handleAdmin,
		},
		dispatch.Rule{
			Name:      "admin_broadcast",
			AdminOnly: true,
			Match:     dispatch.OnCallback(cbAdminBroadcast),
			Handle:    a.handleAdminBroadcast,
		},
		dispatch.Rule{
			Name:      "admin_cancel",
			AdminOnly: true,
			Match:     dispatch.OnCallback(cbAdminCancel),
			Handle:    a.handleAdminCancel,
		},
	)
}

// matchArmedMessage consumes the admin's next message of any kind while a
// broadcast is pending. Callbacks are not messages and stay routable so the
// admin can still press Cancel.
func (a *App) matchArmedMessage(ev dispatch.Event) bool {
	if ev.Kind == dispatch.KindCallback {
		return false
	}
	return a.controller.Armed(ev.UserID)
}
