package moderation

import (
	"context"
	"strings"
)

var helpUser = []string{
	"/report <text> — send a complaint to the owner.",
	"/info [id] — show information about a user.",
	"/help — show this message.",
	"/warns [id] — show a user's warnings.",
}

var helpHelper = []string{
	"/warn [id|reply] [reason] — issue a warning.",
	"/mute [id|reply] [minutes] [reason] — mute a user.",
	"/add [id] — invite a user to the conversation.",
	"/ss — call senior staff.",
}

var helpModerator = []string{
	"/unwarn [id|reply] — retract the last warning.",
	"/unmute [id|reply] — lift a mute.",
	"/kick [id|reply] [reason] — remove a user from the conversation.",
	"/clear — delete the replied-to message.",
}

var helpAdmin = []string{
	"/ban [id|reply] [reason] — ban in this conversation.",
	"/unban [id|reply] — lift a local ban.",
	"/skick [id|reply] — kick from every known conversation.",
	"/removerole [id] — strip a user's role here; /allremoverole strips everywhere.",
	"/setmoder, /sethelper [id] — grant moderator or helper here; /allmoder, /allhelper grant globally.",
	"/broadcast <text> — send a message to every known conversation.",
}

var helpOwner = []string{
	"/sban [id|reply] [reason] — global ban; /sunban lifts it.",
	"/setadmin, /setowner [id] — grant admin or owner here; /alladmin, /allowner grant globally.",
	"/blacklist add/remove/list <word> — manage the word blacklist.",
	"/wipe warns/mutes/bans/roles/blacklist/chats — clear a table.",
	"/backup — database snapshot; /exportlogs — log snapshot.",
}

func (e *Engine) cmdHelp(ctx context.Context, evt *MessageEvent) error {
	role, err := e.EffectiveRole(ctx, evt.Sender, evt.Conversation)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("📖 Commands available for your role:\n")
	section := func(title string, lines []string) {
		b.WriteString("\n" + title + "\n")
		for _, l := range lines {
			b.WriteString(l + "\n")
		}
	}
	section("👤 User:", helpUser)
	if role.Rank() >= RoleHelper.Rank() {
		section("🤝 Helper:", helpHelper)
	}
	if role.Rank() >= RoleModerator.Rank() {
		section("🔨 Moderator:", helpModerator)
	}
	if role.Rank() >= RoleAdmin.Rank() {
		section("🛡 Admin:", helpAdmin)
	}
	if role.Rank() >= RoleOwner.Rank() {
		section("👑 Owner:", helpOwner)
	}
	e.safeSend(ctx, evt.Conversation, strings.TrimSpace(b.String()))
	return nil
}
