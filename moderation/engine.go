package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

// Engine is the runtime for processing inbound chat events: it enforces the
// word blacklist, active mutes and bans, guards member invites, and
// dispatches moderation commands. All state lives in the store; the engine
// re-reads it on every decision.
type Engine struct {
	Logger *slog.Logger
	Store  modstore.ModStore
	Client ChatClient
	Config EngineConfig

	fanout *rate.Limiter
}

func NewEngine(logger *slog.Logger, store modstore.ModStore, client ChatClient, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		Logger: logger,
		Store:  store,
		Client: client,
		Config: cfg,
		fanout: rate.NewLimiter(cfg.FanoutRate, 1),
	}
}

// ProcessMessage runs one inbound event through the moderation pipeline:
// chat registration, invite guard, blacklist enforcement, ban and mute
// suppression, then command dispatch. Exactly one of the guard paths or the
// dispatcher handles the event.
func (e *Engine) ProcessMessage(ctx context.Context, evt *MessageEvent) error {
	// similar to an HTTP server, we want to recover any panics from handler execution
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("moderation event execution exception", "err", r, "sender", evt.Sender, "conversation", evt.Conversation)
		}
	}()
	eventsProcessed.Inc()

	if evt.GroupChat {
		if err := e.Store.AddChat(ctx, evt.Conversation); err != nil {
			e.Logger.Error("failed to register chat", "err", err, "conversation", evt.Conversation)
		}
	}

	if evt.Action != nil {
		return e.handleMemberAction(ctx, evt)
	}

	matched, err := e.enforceBlacklist(ctx, evt)
	if err != nil {
		e.Logger.Error("blacklist enforcement failed", "err", err, "sender", evt.Sender)
	}
	if matched {
		return nil
	}

	if e.senderBanned(ctx, evt) {
		return nil
	}

	if e.enforceMute(ctx, evt) {
		return nil
	}

	return e.dispatchCommand(ctx, evt)
}

// senderBanned reports whether the sender holds a ban covering this
// conversation; a banned sender gets no command dispatch.
func (e *Engine) senderBanned(ctx context.Context, evt *MessageEvent) bool {
	bans, err := e.Store.BansOf(ctx, evt.Sender)
	if err != nil {
		e.Logger.Error("ban lookup failed", "err", err, "user", evt.Sender)
		return false
	}
	for i := range bans {
		if bans[i].AppliesIn(evt.Conversation) {
			return true
		}
	}
	return false
}

// enforceMute deletes the message if the sender has an active mute matching
// this conversation. Mute rows are never deleted here; only the expiry
// watcher releases them.
func (e *Engine) enforceMute(ctx context.Context, evt *MessageEvent) bool {
	mutes, err := e.Store.MutesOf(ctx, evt.Sender)
	if err != nil {
		e.Logger.Error("mute lookup failed", "err", err, "user", evt.Sender)
		return false
	}
	now := time.Now()
	for i := range mutes {
		if mutes[i].ActiveIn(evt.Conversation, now) {
			e.deleteEventMessage(ctx, evt)
			mutedMessagesDeleted.Inc()
			return true
		}
	}
	return false
}

// deleteEventMessage removes the triggering message, preferring the
// conversation-scoped identifier and falling back to the global one.
func (e *Engine) deleteEventMessage(ctx context.Context, evt *MessageEvent) {
	var err error
	switch {
	case evt.ConversationMessageID != 0:
		err = e.Client.DeleteMessage(ctx, evt.Conversation, evt.ConversationMessageID)
	case evt.MessageID != 0:
		err = e.Client.DeleteByMessageID(ctx, evt.MessageID)
	default:
		return
	}
	if err != nil {
		e.Logger.Debug("message delete failed", "err", err, "conversation", evt.Conversation)
	}
}

// safeSend delivers a notification, logging (not propagating) any failure.
func (e *Engine) safeSend(ctx context.Context, destination int64, text string) {
	if err := e.Client.SendText(ctx, destination, text); err != nil {
		e.Logger.Debug("send failed", "err", err, "destination", destination)
	}
}

// notifyOwner sends to the configured owner, if one is set.
func (e *Engine) notifyOwner(ctx context.Context, text string) {
	if e.Config.OwnerID != 0 {
		e.safeSend(ctx, e.Config.OwnerID, text)
	}
}

// mention renders a user as a platform mention, resolving the display name
// best-effort.
func (e *Engine) mention(ctx context.Context, user int64) string {
	name, err := e.Client.ResolveProfile(ctx, user)
	if err != nil || name == "" {
		name = fmt.Sprintf("%d", user)
	}
	return fmt.Sprintf("[id%d|%s]", user, name)
}

func timestamp() string {
	return time.Now().Format(time.DateTime)
}
