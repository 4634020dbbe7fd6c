// Package referral layers first-touch attribution on top of the ledger.
// It is a derived view: the only stored facts are the inviter/invited fields
// of the user records.
package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

// Graph resolves referral codes and records attribution edges.
type Graph struct {
	store *ledger.Store
	// rewardPerInvite is the figure shown to inviters. Informational only;
	// attribution never credits a balance.
	rewardPerInvite int64
	botUsername     string
}

// NewGraph builds the referral view over the ledger store.
func NewGraph(store *ledger.Store, rewardPerInvite int64, botUsername string) *Graph {
	return &Graph{
		store:           store,
		rewardPerInvite: rewardPerInvite,
		botUsername:     botUsername,
	}
}

// DecodeCode extracts the inviter user id from a start command payload.
// The code is opaque: it is the inviter's own user id.
func (g *Graph) DecodeCode(payload string) (string, bool) {
	code := strings.TrimSpace(payload)
	if code == "" {
		return "", false
	}
	return code, true
}

// Attribute records inviterID as the first-touch inviter of newUserID and
// reports whether the edge was recorded. Routine rejections (self-referral,
// unknown inviter, an already attributed user) are swallowed after a debug
// log, since the referrer is never told about them.
func (g *Graph) Attribute(ctx context.Context, inviterID, newUserID string) bool {
	err := g.store.RecordReferral(ctx, inviterID, newUserID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ledger.ErrAlreadyAttributed),
		errors.Is(err, ledger.ErrSelfReferral),
		errors.Is(err, ledger.ErrNotFound):
		logger.Debug(ctx, "referral", "attribute.skip",
			slog.String("status", "skip"),
			slog.String("inviter", inviterID),
			slog.String("invitee", newUserID),
			slog.String("err", err.Error()),
		)
	default:
		logger.Error(ctx, "referral", "attribute.fail",
			slog.String("status", "fail"),
			slog.String("inviter", inviterID),
			slog.String("invitee", newUserID),
			slog.String("err", err.Error()),
		)
	}
	return false
}

// Stats returns the number of users invited by userID and the projected
// reward figure for display.
func (g *Graph) Stats(userID string) (invited int, reward int64) {
	rec, err := g.store.Get(userID)
	if err != nil {
		return 0, 0
	}
	invited = len(rec.Invited)
	return invited, int64(invited) * g.rewardPerInvite
}

// Link builds the deep link a user shares to refer others.
func (g *Graph) Link(userID string) string {
	username := strings.TrimPrefix(g.botUsername, "@")
	if username == "" {
		return userID
	}
	return fmt.Sprintf("https://t.me/%s?start=%s", username, userID)
}
