package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

// enforceBlacklist scans the message text against the word blacklist. On the
// first match it deletes the message, strips the author's roles everywhere,
// kicks them from every known conversation, records a global ban, and
// notifies the owner and the conversation. Returns true when a match was
// handled so the caller stops processing the message.
func (e *Engine) enforceBlacklist(ctx context.Context, evt *MessageEvent) (bool, error) {
	// the configured owner is exempt, as in the permission check; otherwise
	// "/blacklist remove <word>" would ban the administrator issuing it
	if e.IsOwner(evt.Sender) {
		return false, nil
	}
	words, err := e.Store.BlacklistWords(ctx)
	if err != nil {
		return false, fmt.Errorf("loading blacklist: %w", err)
	}
	if len(words) == 0 {
		return false, nil
	}
	low := strings.ToLower(evt.Text)
	for _, w := range words {
		if w == "" || !strings.Contains(low, w) {
			continue
		}
		e.deleteEventMessage(ctx, evt)
		if err := e.Store.RemoveAllRoles(ctx, evt.Sender); err != nil {
			e.Logger.Error("failed to strip roles", "err", err, "user", evt.Sender)
		}
		kicked, attempted := e.GlobalKick(ctx, evt.Sender)
		if err := e.Store.AddBan(ctx, evt.Sender, e.Config.OwnerID, fmt.Sprintf("Blacklisted word: %s", w), modstore.GlobalScope); err != nil {
			e.Logger.Error("failed to record blacklist ban", "err", err, "user", evt.Sender)
		}
		blacklistHits.Inc()
		e.Logger.Info("blacklist triggered", "user", evt.Sender, "word", w, "kicked", kicked, "attempted", attempted)
		e.notifyOwner(ctx, fmt.Sprintf(
			"🚨 BLACKLIST TRIGGER\nUser: %s\nWord: «%s»\nDate: %s\nRoles removed, kicked from %d/%d conversations.",
			e.mention(ctx, evt.Sender), w, timestamp(), kicked, attempted))
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
			"🚫 Message removed: blacklisted word. %s has been kicked and banned.", e.mention(ctx, evt.Sender)))
		return true, nil
	}
	return false, nil
}
