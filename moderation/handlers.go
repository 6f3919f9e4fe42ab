package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

func (e *Engine) runCommand(ctx context.Context, evt *MessageEvent, key string, args []string) error {
	switch key {
	case "help":
		return e.cmdHelp(ctx, evt)
	case "info":
		return e.cmdInfo(ctx, evt, args)
	case "warn":
		return e.cmdWarn(ctx, evt, args)
	case "warns":
		return e.cmdWarns(ctx, evt, args)
	case "unwarn":
		return e.cmdUnwarn(ctx, evt, args)
	case "mute":
		return e.cmdMute(ctx, evt, args)
	case "unmute":
		return e.cmdUnmute(ctx, evt, args)
	case "kick":
		return e.cmdKick(ctx, evt, args)
	case "skick":
		return e.cmdSkick(ctx, evt, args)
	case "ban":
		return e.cmdBan(ctx, evt, args)
	case "unban":
		return e.cmdUnban(ctx, evt, args)
	case "sban":
		return e.cmdSban(ctx, evt, args)
	case "sunban":
		return e.cmdSunban(ctx, evt, args)
	case "add":
		return e.cmdAdd(ctx, evt, args)
	case "blacklist":
		return e.cmdBlacklist(ctx, evt, args)
	case "wipe":
		return e.cmdWipe(ctx, evt, args)
	case "report":
		return e.cmdReport(ctx, evt, args)
	case "broadcast":
		return e.cmdBroadcast(ctx, evt, args)
	case "ss":
		return e.cmdSS(ctx, evt)
	case "admins":
		return e.cmdAdmins(ctx, evt)
	case "setowner":
		return e.cmdSetRole(ctx, evt, args, key, RoleOwner, evt.Conversation)
	case "setadmin":
		return e.cmdSetRole(ctx, evt, args, key, RoleAdmin, evt.Conversation)
	case "setmoder":
		return e.cmdSetRole(ctx, evt, args, key, RoleModerator, evt.Conversation)
	case "sethelper":
		return e.cmdSetRole(ctx, evt, args, key, RoleHelper, evt.Conversation)
	case "allowner":
		return e.cmdSetRole(ctx, evt, args, key, RoleOwner, modstore.GlobalScope)
	case "alladmin":
		return e.cmdSetRole(ctx, evt, args, key, RoleAdmin, modstore.GlobalScope)
	case "allmoder":
		return e.cmdSetRole(ctx, evt, args, key, RoleModerator, modstore.GlobalScope)
	case "allhelper":
		return e.cmdSetRole(ctx, evt, args, key, RoleHelper, modstore.GlobalScope)
	case "removerole":
		return e.cmdRemoveRole(ctx, evt, args, false)
	case "allremoverole":
		return e.cmdRemoveRole(ctx, evt, args, true)
	case "backup":
		return e.cmdBackup(ctx, evt)
	case "exportlogs":
		return e.cmdExportLogs(ctx, evt)
	case "clear":
		return e.cmdClear(ctx, evt)
	default:
		return nil
	}
}

func (e *Engine) cmdWarn(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "warn") {
		return nil
	}
	target, rest := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	reason := reasonFrom(rest)
	count, err := e.Warn(ctx, target, evt.Sender, reason, evt.Conversation)
	if err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
		"⚠️ Warning issued to %s.\nReason: %s\nIssued by: %s\nDate: %s\nTotal warns: %d",
		e.mention(ctx, target), reason, e.mention(ctx, evt.Sender), timestamp(), count))
	if count >= e.Config.WarnKickThreshold {
		if err := e.Client.RemoveMember(ctx, evt.Conversation, target); err != nil {
			e.Logger.Debug("warn-threshold kick failed", "err", err, "user", target, "conversation", evt.Conversation)
		}
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf("❌ %s removed from the conversation (%d/%d warns).",
			e.mention(ctx, target), count, e.Config.WarnKickThreshold))
	}
	return nil
}

func (e *Engine) cmdWarns(ctx context.Context, evt *MessageEvent, args []string) error {
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		target = evt.Sender
	}
	warns, err := e.Store.WarnsOf(ctx, target)
	if err != nil {
		return err
	}
	if len(warns) == 0 {
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ %s has no warns.", e.mention(ctx, target)))
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📜 Warns for %s (%d):\n", e.mention(ctx, target), len(warns))
	for i := range warns {
		w := &warns[i]
		fmt.Fprintf(&b, "- %s | by %s | reason: %s\n", w.CreatedAt.Format(time.DateTime), e.mention(ctx, w.IssuedBy), w.Reason)
	}
	e.safeSend(ctx, evt.Conversation, b.String())
	return nil
}

func (e *Engine) cmdUnwarn(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "unwarn") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	removed, err := e.Unwarn(ctx, target)
	if err != nil {
		return err
	}
	if !removed {
		e.safeSend(ctx, evt.Conversation, "❌ The user has no warns.")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ Last warn removed from %s", e.mention(ctx, target)))
	return nil
}

func (e *Engine) cmdMute(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "mute") {
		return nil
	}
	target, rest := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	minutes := e.Config.DefaultMuteMinutes
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil && n > 0 {
			minutes = n
			rest = rest[1:]
		}
	}
	reason := reasonFrom(rest)
	until, err := e.Mute(ctx, target, evt.Sender, minutes, reason, evt.Conversation)
	if err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
		"🔇 %s muted for %d minutes.\nReason: %s\nUntil: %s",
		e.mention(ctx, target), minutes, reason, until.Format(time.DateTime)))
	return nil
}

func (e *Engine) cmdUnmute(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "unmute") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if err := e.Unmute(ctx, target, evt.Conversation); err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🔔 %s unmuted.", e.mention(ctx, target)))
	return nil
}

func (e *Engine) cmdKick(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "kick") {
		return nil
	}
	target, rest := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	reason := reasonFrom(rest)
	if err := e.Client.RemoveMember(ctx, evt.Conversation, target); err != nil {
		e.Logger.Debug("kick failed", "err", err, "user", target, "conversation", evt.Conversation)
		e.safeSend(ctx, evt.Conversation, "❌ Kick failed (the bot may lack rights).")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("👢 %s kicked.\nReason: %s\nIssued by: %s",
		e.mention(ctx, target), reason, e.mention(ctx, evt.Sender)))
	return nil
}

func (e *Engine) cmdSkick(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "skick") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	kicked, attempted := e.GlobalKick(ctx, target)
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("👢 Tried to remove %s from every known conversation. Succeeded: %d/%d",
		e.mention(ctx, target), kicked, attempted))
	return nil
}

func (e *Engine) cmdBan(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "ban") {
		return nil
	}
	target, rest := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	reason := reasonFrom(rest)
	if _, _, err := e.Ban(ctx, target, evt.Sender, reason, evt.Conversation); err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🔒 %s banned in this conversation. Reason: %s",
		e.mention(ctx, target), reason))
	return nil
}

func (e *Engine) cmdUnban(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "unban") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if err := e.Unban(ctx, target, evt.Conversation); err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🔓 %s unbanned in this conversation.", e.mention(ctx, target)))
	return nil
}

func (e *Engine) cmdSban(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "sban") {
		return nil
	}
	target, rest := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	reason := reasonFrom(rest)
	kicked, attempted, err := e.Ban(ctx, target, evt.Sender, reason, modstore.GlobalScope)
	if err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🚫 %s globally banned. Removed from %d/%d conversations. Reason: %s",
		e.mention(ctx, target), kicked, attempted, reason))
	return nil
}

func (e *Engine) cmdSunban(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "sunban") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if err := e.UnbanEverywhere(ctx, target); err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🔓 Global ban lifted from %s", e.mention(ctx, target)))
	return nil
}

func (e *Engine) cmdAdd(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "add") {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if err := e.Client.AddMember(ctx, evt.Conversation, target); err != nil {
		e.Logger.Debug("add member failed", "err", err, "user", target, "conversation", evt.Conversation)
		e.safeSend(ctx, evt.Conversation, "❌ Could not add the user (the bot may lack rights).")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ %s added to the conversation.", e.mention(ctx, target)))
	return nil
}

func (e *Engine) cmdInfo(ctx context.Context, evt *MessageEvent, args []string) error {
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		target = evt.Sender
	}
	role, err := e.EffectiveRole(ctx, target, evt.Conversation)
	if err != nil {
		return err
	}
	warns, err := e.Store.WarnsOf(ctx, target)
	if err != nil {
		return err
	}
	mutes, err := e.Store.MutesOf(ctx, target)
	if err != nil {
		return err
	}
	bans, err := e.Store.BansOf(ctx, target)
	if err != nil {
		return err
	}
	active := 0
	now := time.Now()
	for i := range mutes {
		if mutes[i].Until.After(now) {
			active++
		}
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf(
		"📌 Info: %s\nRole (here): %s\nTotal warns: %d\nActive mutes: %d\nBan records: %d",
		e.mention(ctx, target), role, len(warns), active, len(bans)))
	return nil
}

func (e *Engine) cmdBlacklist(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "blacklist") {
		return nil
	}
	if len(args) == 0 {
		e.safeSend(ctx, evt.Conversation, "Usage: /blacklist add/remove/list <word>")
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "add", "добавить":
		if len(args) < 2 {
			e.safeSend(ctx, evt.Conversation, "❌ Specify a word.")
			return nil
		}
		if err := e.Store.AddBlacklistWord(ctx, args[1]); err != nil {
			return err
		}
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ Word '%s' added to the blacklist.", args[1]))
	case "remove", "удалить", "rm":
		if len(args) < 2 {
			e.safeSend(ctx, evt.Conversation, "❌ Specify a word.")
			return nil
		}
		if err := e.Store.RemoveBlacklistWord(ctx, args[1]); err != nil {
			return err
		}
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ Word '%s' removed from the blacklist.", args[1]))
	case "list", "список":
		words, err := e.Store.BlacklistWords(ctx)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			e.safeSend(ctx, evt.Conversation, "📜 The blacklist is empty.")
			return nil
		}
		e.safeSend(ctx, evt.Conversation, "📜 Blacklisted words:\n"+strings.Join(words, ", "))
	default:
		e.safeSend(ctx, evt.Conversation, "❌ Unknown action.")
	}
	return nil
}

func (e *Engine) cmdWipe(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "wipe") {
		return nil
	}
	if len(args) == 0 {
		e.safeSend(ctx, evt.Conversation, "Usage: /wipe warns/mutes/bans/roles/blacklist/chats")
		return nil
	}
	table := strings.ToLower(args[0])
	if err := e.Store.Wipe(ctx, table); err != nil {
		e.safeSend(ctx, evt.Conversation, "❌ Invalid parameter.")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🧹 Table '%s' wiped.", table))
	return nil
}

func (e *Engine) cmdReport(ctx context.Context, evt *MessageEvent, args []string) error {
	if len(args) == 0 {
		e.safeSend(ctx, evt.Conversation, "❌ Write the report text.")
		return nil
	}
	e.notifyOwner(ctx, fmt.Sprintf("📣 Report from %s\n%s\n%s",
		e.mention(ctx, evt.Sender), strings.Join(args, " "), timestamp()))
	e.safeSend(ctx, evt.Conversation, "✅ Report forwarded to the owner.")
	return nil
}

func (e *Engine) cmdBroadcast(ctx context.Context, evt *MessageEvent, args []string) error {
	if !e.allowed(ctx, evt, "broadcast") {
		return nil
	}
	if len(args) == 0 {
		e.safeSend(ctx, evt.Conversation, "❌ Specify the broadcast text.")
		return nil
	}
	name, err := e.Client.ResolveProfile(ctx, evt.Sender)
	if err != nil || name == "" {
		name = strconv.FormatInt(evt.Sender, 10)
	}
	msg := fmt.Sprintf("@all Attention! A message from %s:\n\n%s", name, strings.Join(args, " "))
	sent, err := e.Broadcast(ctx, msg)
	if err != nil {
		return err
	}
	if sent == 0 {
		e.safeSend(ctx, evt.Conversation, "❌ The bot is not a member of any conversation.")
		return nil
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ Broadcast delivered to %d conversation(s).", sent))
	return nil
}

func (e *Engine) cmdSS(ctx context.Context, evt *MessageEvent) error {
	if !e.allowed(ctx, evt, "ss") {
		return nil
	}
	e.safeSend(ctx, evt.Conversation, "@all Senior staff to the game! You have 5 minutes.")
	return nil
}

func (e *Engine) cmdAdmins(ctx context.Context, evt *MessageEvent) error {
	rows, err := e.Store.RolesInScope(ctx, evt.Conversation)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		e.safeSend(ctx, evt.Conversation, "⚠ No staff assigned in this conversation yet.")
		return nil
	}
	grouped := map[Role][]int64{}
	for i := range rows {
		r := CanonicalRole(rows[i].Role)
		grouped[r] = append(grouped[r], rows[i].UserID)
	}
	var b strings.Builder
	b.WriteString("👑 Conversation staff:\n")
	for _, tier := range []struct {
		role  Role
		title string
	}{
		{RoleOwner, "👑 Owners"},
		{RoleAdmin, "🛡 Admins"},
		{RoleModerator, "🔨 Moderators"},
		{RoleHelper, "🤝 Helpers"},
	} {
		ids := grouped[tier.role]
		if len(ids) == 0 {
			continue
		}
		b.WriteString("\n" + tier.title + ":\n")
		for _, uid := range ids {
			b.WriteString(e.mention(ctx, uid) + "\n")
		}
	}
	e.safeSend(ctx, evt.Conversation, strings.TrimSpace(b.String()))
	return nil
}

func (e *Engine) cmdSetRole(ctx context.Context, evt *MessageEvent, args []string, action string, role Role, scope int64) error {
	if !e.allowed(ctx, evt, action) {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if err := e.Store.SetRole(ctx, target, string(role), scope); err != nil {
		return err
	}
	where := "in this conversation"
	if scope == modstore.GlobalScope {
		where = "globally"
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ %s is now %s %s.\nIssued by: %s\nDate: %s",
		e.mention(ctx, target), role, where, e.mention(ctx, evt.Sender), timestamp()))
	return nil
}

func (e *Engine) cmdRemoveRole(ctx context.Context, evt *MessageEvent, args []string, everywhere bool) error {
	action := "removerole"
	if everywhere {
		action = "allremoverole"
	}
	if !e.allowed(ctx, evt, action) {
		return nil
	}
	target, _ := e.resolveTarget(ctx, evt, args)
	if target == 0 {
		e.safeSend(ctx, evt.Conversation, msgNoTarget)
		return nil
	}
	if everywhere {
		if err := e.Store.RemoveAllRoles(ctx, target); err != nil {
			return err
		}
		e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🌍 All roles removed from %s everywhere.", e.mention(ctx, target)))
		return nil
	}
	if err := e.Store.RemoveRoles(ctx, target, evt.Conversation); err != nil {
		return err
	}
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("✅ Roles removed from %s in this conversation.", e.mention(ctx, target)))
	return nil
}

// cmdClear deletes the replied-to message; the actor must outrank the
// message author.
func (e *Engine) cmdClear(ctx context.Context, evt *MessageEvent) error {
	if !e.allowed(ctx, evt, "clear") {
		return nil
	}
	if evt.Reply == nil || evt.Reply.ConversationMessageID == 0 {
		e.safeSend(ctx, evt.Conversation, "⚠ Reply to the message you want removed.")
		return nil
	}
	actorRole, err := e.EffectiveRole(ctx, evt.Sender, evt.Conversation)
	if err != nil {
		return err
	}
	targetRole, err := e.EffectiveRole(ctx, evt.Reply.Sender, evt.Conversation)
	if err != nil {
		return err
	}
	if actorRole.Rank() <= targetRole.Rank() && !e.IsOwner(evt.Sender) {
		e.safeSend(ctx, evt.Conversation, "⛔ You cannot remove this user's message.")
		return nil
	}
	if err := e.Client.DeleteMessage(ctx, evt.Conversation, evt.Reply.ConversationMessageID); err != nil {
		e.Logger.Debug("reply delete failed", "err", err, "conversation", evt.Conversation)
		e.safeSend(ctx, evt.Conversation, "⚠ Failed to delete the message.")
		return nil
	}
	// also drop the command message itself
	e.deleteEventMessage(ctx, evt)
	e.safeSend(ctx, evt.Conversation, fmt.Sprintf("🗑 Message removed.\n👮 By: %s\n👤 From: %s\n⏰ At: %s",
		e.mention(ctx, evt.Sender), e.mention(ctx, evt.Reply.Sender), timestamp()))
	return nil
}
