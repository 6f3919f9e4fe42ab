package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

// Warn records a warning and returns the user's live warn count after
// insertion. The count spans all scopes, matching how warnings are displayed;
// per-conversation counting was considered and rejected to keep the two views
// consistent with each other.
func (e *Engine) Warn(ctx context.Context, user, issuer int64, reason string, scope int64) (int, error) {
	if err := e.Store.AddWarn(ctx, user, issuer, reason, scope); err != nil {
		return 0, fmt.Errorf("recording warn: %w", err)
	}
	warns, err := e.Store.WarnsOf(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("counting warns: %w", err)
	}
	return len(warns), nil
}

// Unwarn retracts the most recent warning for the user, across all scopes.
// Returns false if the user has none.
func (e *Engine) Unwarn(ctx context.Context, user int64) (bool, error) {
	return e.Store.RemoveLastWarn(ctx, user)
}

// Mute silences the user for the given number of minutes within the scope
// and returns the computed release time. Duration validation is the
// dispatcher's job; this always receives a positive minute count.
func (e *Engine) Mute(ctx context.Context, user, issuer int64, minutes int, reason string, scope int64) (time.Time, error) {
	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := e.Store.AddMute(ctx, user, issuer, until, reason, scope); err != nil {
		return time.Time{}, fmt.Errorf("recording mute: %w", err)
	}
	return until, nil
}

// Unmute deletes the user's mute rows for the scope. Global mutes for the
// user are left untouched.
func (e *Engine) Unmute(ctx context.Context, user, scope int64) error {
	return e.Store.DeleteMutes(ctx, user, scope)
}

// Ban records a ban, strips the user's roles for the banned scope and
// attempts the matching kick. A global ban (scope 0) strips roles everywhere
// and fans the kick out across every known conversation. Kick failures do
// not roll back the ban; the attempt outcome is reported back for display.
func (e *Engine) Ban(ctx context.Context, user, issuer int64, reason string, scope int64) (kicked, attempted int, err error) {
	if err := e.Store.AddBan(ctx, user, issuer, reason, scope); err != nil {
		return 0, 0, fmt.Errorf("recording ban: %w", err)
	}
	if scope == modstore.GlobalScope {
		if err := e.Store.RemoveAllRoles(ctx, user); err != nil {
			e.Logger.Error("failed to strip roles", "err", err, "user", user)
		}
		kicked, attempted = e.GlobalKick(ctx, user)
		return kicked, attempted, nil
	}
	if err := e.Store.RemoveRoles(ctx, user, scope); err != nil {
		e.Logger.Error("failed to strip roles", "err", err, "user", user, "scope", scope)
	}
	if err := e.Client.RemoveMember(ctx, scope, user); err != nil {
		e.Logger.Debug("ban kick failed", "err", err, "user", user, "conversation", scope)
		return 0, 1, nil
	}
	return 1, 1, nil
}

// Unban deletes the user's ban rows for one conversation only.
func (e *Engine) Unban(ctx context.Context, user, scope int64) error {
	return e.Store.RemoveBans(ctx, user, scope)
}

// UnbanEverywhere deletes all ban rows for the user, local and global.
func (e *Engine) UnbanEverywhere(ctx context.Context, user int64) error {
	return e.Store.RemoveAllBans(ctx, user)
}

// GlobalKick attempts to remove the user from every known conversation. Each
// per-conversation call is independent and best-effort; the shared limiter
// paces the outbound channel.
func (e *Engine) GlobalKick(ctx context.Context, user int64) (kicked, attempted int) {
	chats, err := e.Store.Chats(ctx)
	if err != nil {
		e.Logger.Error("listing known chats failed", "err", err)
		return 0, 0
	}
	for _, conversation := range chats {
		if err := e.fanout.Wait(ctx); err != nil {
			return kicked, attempted
		}
		attempted++
		if err := e.Client.RemoveMember(ctx, conversation, user); err != nil {
			e.Logger.Debug("kick failed", "err", err, "user", user, "conversation", conversation)
		} else {
			kicked++
		}
	}
	return kicked, attempted
}

// Broadcast sends the text to every known conversation and returns how many
// sends succeeded.
func (e *Engine) Broadcast(ctx context.Context, text string) (int, error) {
	chats, err := e.Store.Chats(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing known chats: %w", err)
	}
	sent := 0
	for _, conversation := range chats {
		if err := e.fanout.Wait(ctx); err != nil {
			return sent, nil
		}
		if err := e.Client.SendText(ctx, conversation, text); err != nil {
			e.Logger.Debug("broadcast send failed", "err", err, "conversation", conversation)
		} else {
			sent++
		}
	}
	return sent, nil
}
