package moderation

import (
	"context"
	"fmt"
)

// handleMemberAction applies the invite guard to a membership event: banned
// invitees are removed on sight, and inviters below the helper rank are
// locally banned for inviting without authority.
func (e *Engine) handleMemberAction(ctx context.Context, evt *MessageEvent) error {
	if evt.Action.Type != ActionInvite && evt.Action.Type != ActionInviteByLink {
		return nil
	}
	invitee := evt.Action.Member
	if invitee == 0 {
		return nil
	}

	bans, err := e.Store.BansOf(ctx, invitee)
	if err != nil {
		return fmt.Errorf("checking invitee bans: %w", err)
	}
	for i := range bans {
		if !bans[i].AppliesIn(evt.Conversation) {
			continue
		}
		reason := bans[len(bans)-1].Reason
		if err := e.Client.RemoveMember(ctx, evt.Conversation, invitee); err != nil {
			e.Logger.Debug("invitee kick failed", "err", err, "user", invitee, "conversation", evt.Conversation)
		}
		invitesBlocked.Inc()
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
			"❌ %s was invited, but is banned and has been removed. Reason: %s", e.mention(ctx, invitee), reason))
		return nil
	}

	actorRole, err := e.EffectiveRole(ctx, evt.Sender, evt.Conversation)
	if err != nil {
		return fmt.Errorf("resolving inviter role: %w", err)
	}
	if actorRole.Rank() < RoleHelper.Rank() && !e.IsOwner(evt.Sender) {
		if err := e.Store.AddBan(ctx, evt.Sender, e.Config.OwnerID, "Unauthorized invite", evt.Conversation); err != nil {
			e.Logger.Error("failed to record invite ban", "err", err, "user", evt.Sender)
		}
		if err := e.Client.RemoveMember(ctx, evt.Conversation, invitee); err != nil {
			e.Logger.Debug("invitee kick failed", "err", err, "user", invitee, "conversation", evt.Conversation)
		}
		invitesBlocked.Inc()
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
			"🚨 %s tried to invite %s without authority. The inviter is banned in this conversation and the invitee removed.",
			e.mention(ctx, evt.Sender), e.mention(ctx, invitee)))
		return nil
	}

	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ %s joined the conversation.", e.mention(ctx, invitee)))
	return nil
}
