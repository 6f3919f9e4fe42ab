package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chatwarden/chatwarden/moderation"
	"github.com/chatwarden/chatwarden/vkapi"
)

func (s *Server) RunConsumer(ctx context.Context) error {

	cur, err := s.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	lp, err := s.client.NewLongPoll(ctx, s.groupID)
	if err != nil {
		return err
	}
	if cur != "" {
		lp.TS = cur
	}
	s.logger.Info("subscribing to group event stream", "group", s.groupID, "ts", lp.TS)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		updates, err := lp.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// don't let one bad poll kill the loop; back off and retry
			s.logger.Error("long-poll failed", "err", err)
			pollErrors.Inc()
			time.Sleep(3 * time.Second)
			continue
		}
		ts := lp.TS
		s.lastTS.Store(&ts)
		for _, evt := range updates {
			eventsReceived.WithLabelValues(evt.Type).Inc()
			if err := s.handleEvent(ctx, evt); err != nil {
				s.logger.Error("processing event failed", "eventType", evt.Type, "err", err)
			}
		}
	}
}

// NOTE: for now, this function basically never errors from engine processing;
// the engine logs and recovers internally. Errors here are decode failures.
func (s *Server) handleEvent(ctx context.Context, evt vkapi.Event) error {
	if evt.Type != vkapi.EventMessageNew {
		return nil
	}
	var obj vkapi.MessageNewObject
	if err := json.Unmarshal(evt.Object, &obj); err != nil {
		return err
	}
	if obj.Message == nil {
		return nil
	}
	evtRec := normalizeMessage(obj.Message)
	return s.engine.ProcessMessage(ctx, &evtRec)
}

// normalizeMessage maps a raw long-poll payload into the engine's event
// record. All platform-specific identifier conventions are resolved here so
// the engine never inspects raw payloads.
func normalizeMessage(m *vkapi.MessagePayload) moderation.MessageEvent {
	evt := moderation.MessageEvent{
		Conversation:          m.PeerID,
		GroupChat:             m.PeerID >= vkapi.GroupChatBase,
		Sender:                m.FromID,
		Text:                  m.Text,
		MessageID:             m.ID,
		ConversationMessageID: m.ConversationMessageID,
	}
	if m.ReplyMessage != nil {
		evt.Reply = &moderation.ReplyRef{
			Sender:                m.ReplyMessage.FromID,
			ConversationMessageID: m.ReplyMessage.ConversationMessageID,
		}
	}
	if m.Action != nil {
		evt.Action = &moderation.MemberAction{
			Type:   m.Action.Type,
			Member: m.Action.MemberID,
		}
	}
	return evt
}
