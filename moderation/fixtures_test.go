package moderation

import (
	"log/slog"
	"testing"

	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

const (
	testOwner int64 = 99
	testChat  int64 = 2_000_000_001
	testChat2 int64 = 2_000_000_002
)

func engineFixture(t *testing.T) (*Engine, *MockChatClient) {
	t.Helper()
	return engineFixtureConfig(t, EngineConfig{
		OwnerID:    testOwner,
		FanoutRate: rate.Inf,
	})
}

func engineFixtureConfig(t *testing.T, cfg EngineConfig) (*Engine, *MockChatClient) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatal(err)
	}
	store, err := modstore.NewGormStore(db)
	if err != nil {
		t.Fatal(err)
	}
	client := NewMockChatClient()
	return NewEngine(slog.Default(), store, client, cfg), client
}

// groupMessage builds a normalized group-conversation message event.
func groupMessage(conversation, sender int64, text string) *MessageEvent {
	return &MessageEvent{
		Conversation:          conversation,
		GroupChat:             true,
		Sender:                sender,
		Text:                  text,
		MessageID:             1000,
		ConversationMessageID: 42,
	}
}
