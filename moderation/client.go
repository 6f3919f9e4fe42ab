package moderation

import "context"

// ChatClient is the set of messaging-platform capabilities the engine
// consumes. All operations are best-effort from the engine's point of view: a
// failed call degrades to "not performed" and never stalls event processing.
type ChatClient interface {
	SendText(ctx context.Context, destination int64, text string) error
	SendWithAttachment(ctx context.Context, destination int64, attachments []string, text string) error

	// DeleteMessage removes a message for everyone by its per-conversation
	// identifier.
	DeleteMessage(ctx context.Context, conversation int64, conversationMessageID int64) error
	// DeleteByMessageID is the fallback delete path when only the global
	// message identifier is known.
	DeleteByMessageID(ctx context.Context, messageID int64) error

	RemoveMember(ctx context.Context, conversation int64, user int64) error
	AddMember(ctx context.Context, conversation int64, user int64) error

	// ResolveProfile returns a display name for the user. Implementations
	// fall back to the raw identifier string on failure.
	ResolveProfile(ctx context.Context, user int64) (string, error)
	// ResolveHandle resolves a screen name or profile URL to a user id.
	ResolveHandle(ctx context.Context, handleOrURL string) (int64, error)

	// UploadDocument uploads a local file for the destination peer and
	// returns an attachment reference usable with SendWithAttachment.
	UploadDocument(ctx context.Context, destination int64, path, title string) (string, error)
}
