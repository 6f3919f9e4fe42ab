package moderation

import (
	"context"
	"fmt"
	"time"
)

const muteWatchInterval = 10 * time.Second

// groupConversationBase mirrors the platform peer-id convention: identifiers
// at or above it are group conversations. Release notices only go to group
// scopes; anything else is reported to the owner.
const groupConversationBase int64 = 2_000_000_000

// RunMuteWatcher periodically releases expired mutes. It is level-triggered:
// every tick re-derives the work from current stored state, so a restart
// loses nothing. The loop only exits on context cancellation; per-iteration
// errors are logged and retried on the next tick.
//
// Expects to be run in a goroutine. The watcher is the only component that
// deletes mute rows on expiry; enforcement paths just test the predicate.
func (e *Engine) RunMuteWatcher(ctx context.Context) error {
	ticker := time.NewTicker(muteWatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.ReleaseExpiredMutes(ctx)
		}
	}
}

// ReleaseExpiredMutes performs one watcher iteration: delete every mute whose
// release time has passed and notify the origin conversation, or the owner
// for global mutes. A failure on one row never stops the scan.
func (e *Engine) ReleaseExpiredMutes(ctx context.Context) {
	mutes, err := e.Store.AllMutes(ctx)
	if err != nil {
		e.Logger.Error("mute scan failed", "err", err)
		return
	}
	now := time.Now()
	for i := range mutes {
		m := &mutes[i]
		if m.Until.IsZero() {
			// malformed row; skip rather than halt expiry for everyone else
			continue
		}
		if m.Until.After(now) {
			continue
		}
		if err := e.Store.DeleteMute(ctx, m.ID); err != nil {
			e.Logger.Error("failed to delete expired mute", "err", err, "mute", m.ID)
			continue
		}
		mutesExpired.Inc()
		text := fmt.Sprintf("🔔 Mute lifted: %s\nReason: %s\nIssued by: %s\nExpired: %s",
			e.mention(ctx, m.UserID), m.Reason, e.mention(ctx, m.IssuedBy), m.Until.Format(time.DateTime))
		if m.Scope >= groupConversationBase {
			e.safeSend(ctx, m.Scope, text)
		} else {
			e.notifyOwner(ctx, text)
		}
	}
}
