package moderation

import (
	"context"
	"fmt"
	"sync"
)

// MockChatClient implements ChatClient in-memory, recording every platform
// call so tests can assert on side effects without a network.
type MockChatClient struct {
	mu sync.Mutex

	Sent        []MockSend
	Deletes     []MockDelete
	Removals    []MockMembership
	Additions   []MockMembership
	Uploads     []string
	Attachments []MockSend

	// Handles maps screen names to user ids for ResolveHandle.
	Handles map[string]int64
	// Profiles maps user ids to display names for ResolveProfile.
	Profiles map[int64]string
	// FailRemovals lists conversations where RemoveMember reports failure.
	FailRemovals map[int64]bool
}

type MockSend struct {
	Destination int64
	Text        string
}

type MockDelete struct {
	Conversation          int64
	ConversationMessageID int64
	MessageID             int64
}

type MockMembership struct {
	Conversation int64
	User         int64
}

func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		Handles:      make(map[string]int64),
		Profiles:     make(map[int64]string),
		FailRemovals: make(map[int64]bool),
	}
}

func (m *MockChatClient) SendText(ctx context.Context, destination int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, MockSend{Destination: destination, Text: text})
	return nil
}

func (m *MockChatClient) SendWithAttachment(ctx context.Context, destination int64, attachments []string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attachments = append(m.Attachments, MockSend{Destination: destination, Text: text})
	return nil
}

func (m *MockChatClient) DeleteMessage(ctx context.Context, conversation int64, conversationMessageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, MockDelete{Conversation: conversation, ConversationMessageID: conversationMessageID})
	return nil
}

func (m *MockChatClient) DeleteByMessageID(ctx context.Context, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, MockDelete{MessageID: messageID})
	return nil
}

func (m *MockChatClient) RemoveMember(ctx context.Context, conversation int64, user int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemovals[conversation] {
		return fmt.Errorf("no rights in conversation %d", conversation)
	}
	m.Removals = append(m.Removals, MockMembership{Conversation: conversation, User: user})
	return nil
}

func (m *MockChatClient) AddMember(ctx context.Context, conversation int64, user int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Additions = append(m.Additions, MockMembership{Conversation: conversation, User: user})
	return nil
}

func (m *MockChatClient) ResolveProfile(ctx context.Context, user int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.Profiles[user]; ok {
		return name, nil
	}
	return fmt.Sprintf("%d", user), nil
}

func (m *MockChatClient) ResolveHandle(ctx context.Context, handleOrURL string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uid, ok := m.Handles[handleOrURL]; ok {
		return uid, nil
	}
	return 0, fmt.Errorf("unknown handle: %s", handleOrURL)
}

func (m *MockChatClient) UploadDocument(ctx context.Context, destination int64, path, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := fmt.Sprintf("doc%d_%d", destination, len(m.Uploads)+1)
	m.Uploads = append(m.Uploads, path)
	return ref, nil
}

// SentTexts returns every text sent to the given destination.
func (m *MockChatClient) SentTexts(destination int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		if s.Destination == destination {
			out = append(out, s.Text)
		}
	}
	return out
}

// RemovalCount returns how many times the user was removed from the given
// conversation.
func (m *MockChatClient) RemovalCount(conversation, user int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.Removals {
		if r.Conversation == conversation && r.User == user {
			n++
		}
	}
	return n
}

var _ ChatClient = (*MockChatClient)(nil)
