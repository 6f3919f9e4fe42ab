package moderation

// Member action types, as delivered by the platform event stream.
const (
	ActionInvite       = "chat_invite_user"
	ActionInviteByLink = "chat_invite_user_by_link"
)

// MemberAction describes a conversation membership change attached to a
// message event.
type MemberAction struct {
	Type   string
	Member int64
}

// ReplyRef identifies the message a command replies to, used for target
// resolution and reply deletion.
type ReplyRef struct {
	Sender                int64
	ConversationMessageID int64
}

// MessageEvent is the single normalized shape every inbound message or
// membership event is converted to at the ingestion boundary. Core components
// never see raw platform payloads.
type MessageEvent struct {
	// Conversation identifies where the message was posted. It doubles as
	// the moderation scope for sanctions issued from this event.
	Conversation int64
	// GroupChat is true for multi-member conversations; sanctions and chat
	// registration only apply there.
	GroupChat bool
	Sender    int64
	Text      string
	// MessageID is the platform-global message identifier, if known.
	MessageID int64
	// ConversationMessageID is the per-conversation identifier, preferred
	// for delete-for-all operations.
	ConversationMessageID int64
	Reply                 *ReplyRef
	Action                *MemberAction
}
