package moderation

import (
	"context"
	"strconv"
	"strings"
)

const (
	msgNoPermission = "❌ Insufficient rights."
	msgNoTarget     = "❌ Specify a user (reply or id)."
	msgCommandError = "❌ Command failed."
	defaultReason   = "unspecified"
)

// aliasTable maps bare command tokens (prefix stripped, lower-cased) to
// canonical action keys. Russian and English spellings from the legacy bot
// are both kept.
var aliasTable = map[string]string{
	"warn": "warn", "варн": "warn", "пред": "warn",
	"warns": "warns", "варны": "warns", "предупреждения": "warns",
	"unwarn": "unwarn", "снятьварн": "unwarn", "унварн": "unwarn",
	"mute": "mute", "мут": "mute", "заткнуть": "mute",
	"unmute": "unmute", "анмут": "unmute", "размут": "unmute", "унмут": "unmute",
	"kick": "kick", "кик": "kick", "исключить": "kick",
	"skick": "skick", "скик": "skick",
	"ban": "ban", "бан": "ban",
	"unban": "unban", "унбан": "unban",
	"sban": "sban", "сбан": "sban",
	"sunban": "sunban", "сунбан": "sunban",
	"info": "info", "инфо": "info", "я": "info", "q": "info",
	"blacklist": "blacklist", "чс": "blacklist", "блэклист": "blacklist",
	"add": "add", "добавить": "add", "добавитьвгруппу": "add",
	"help": "help", "помощь": "help",
	"wipe": "wipe", "вайп": "wipe",
	"broadcast": "broadcast", "gzov": "broadcast", "гзов": "broadcast",
	"ss": "ss", "сс": "ss", "cc": "ss",
	"report": "report", "репорт": "report",
	"admins": "admins", "админы": "admins",
	"setowner": "setowner", "owner": "setowner", "назначитьвладельцем": "setowner",
	"allowner": "allowner", "всемвладельцем": "allowner",
	"setadmin": "setadmin", "admin": "setadmin", "назначитьадминистратором": "setadmin",
	"setmoder": "setmoder", "moder": "setmoder", "назначитьмодератором": "setmoder",
	"sethelper": "sethelper", "helper": "sethelper", "назначитьпомощником": "sethelper", "назначитьхелпером": "sethelper",
	"alladmin":  "alladmin",
	"allmoder":  "allmoder",
	"allhelper": "allhelper",
	"removerole": "removerole", "снять": "removerole", "разжаловать": "removerole", "ремувроль": "removerole",
	"allremoverole": "allremoverole", "аллснять": "allremoverole", "аллразжаловать": "allremoverole", "аллремувроль": "allremoverole",
	"backup": "backup", "бэкап": "backup",
	"exportlogs": "exportlogs", "экспортлогов": "exportlogs", "export_logs": "exportlogs", "экспорт_логов": "exportlogs",
	"clear": "clear", "удалить": "clear",
}

// resolveAlias maps a prefixed command token to its canonical action key.
// Tokens without a command prefix, or with an unknown alias, resolve to
// nothing: they are ordinary chat text, not errors.
func resolveAlias(token string) (string, bool) {
	if !strings.HasPrefix(token, "!") && !strings.HasPrefix(token, "/") {
		return "", false
	}
	key, ok := aliasTable[strings.ToLower(token[1:])]
	return key, ok
}

// dispatchCommand extracts the command token from the message and routes it
// to a handler. Handler errors are caught here: they are logged and surfaced
// as a generic failure notice, never propagated to the event loop.
func (e *Engine) dispatchCommand(ctx context.Context, evt *MessageEvent) error {
	text := strings.TrimSpace(evt.Text)
	if text == "" {
		return nil
	}
	parts := strings.Fields(text)
	key, ok := resolveAlias(parts[0])
	if !ok {
		e.smallTalk(ctx, evt, strings.ToLower(text))
		return nil
	}
	commandsHandled.Inc()
	if err := e.runCommand(ctx, evt, key, parts[1:]); err != nil {
		e.Logger.Error("command failed", "err", err, "command", key, "sender", evt.Sender, "conversation", evt.Conversation)
		e.safeSend(ctx, evt.Conversation, msgCommandError)
	}
	return nil
}

// allowed runs the permission check for a canonical action, replying with
// the fixed denial message on failure.
func (e *Engine) allowed(ctx context.Context, evt *MessageEvent, action string) bool {
	if e.HasPermission(ctx, evt.Sender, action, evt.Conversation) {
		return true
	}
	commandsDenied.Inc()
	e.safeSend(ctx, evt.Conversation, msgNoPermission)
	return false
}

// resolveTarget finds the user a command acts on: the replied-to sender if
// present, else the first argument as a bracketed mention, a bare id, a
// profile URL, or a handle. Returns the target (0 if unresolvable) and the
// remaining arguments.
func (e *Engine) resolveTarget(ctx context.Context, evt *MessageEvent, args []string) (int64, []string) {
	if evt.Reply != nil && evt.Reply.Sender != 0 {
		return evt.Reply.Sender, args
	}
	if len(args) == 0 {
		return 0, nil
	}
	a := strings.TrimSpace(args[0])
	rest := args[1:]
	if strings.HasPrefix(a, "[id") {
		if sep := strings.Index(a, "|"); sep > 3 {
			if uid, err := strconv.ParseInt(a[3:sep], 10, 64); err == nil {
				return uid, rest
			}
		}
	}
	if uid, err := strconv.ParseInt(a, 10, 64); err == nil && uid > 0 {
		return uid, rest
	}
	handle := strings.TrimPrefix(a, "@")
	if strings.Contains(a, "/") {
		handle = strings.TrimSuffix(a, "/")
		handle = handle[strings.LastIndex(handle, "/")+1:]
	}
	if handle != "" {
		if uid, err := e.Client.ResolveHandle(ctx, handle); err == nil && uid != 0 {
			return uid, rest
		}
	}
	return 0, rest
}

func reasonFrom(args []string) string {
	if len(args) == 0 {
		return defaultReason
	}
	return strings.Join(args, " ")
}

func (e *Engine) smallTalk(ctx context.Context, evt *MessageEvent, low string) {
	switch low {
	case "привет", "hi", "hello":
		e.safeSend(ctx, evt.Conversation, "Привет!")
	case "пока", "bye":
		e.safeSend(ctx, evt.Conversation, "До встречи 👋")
	}
}
