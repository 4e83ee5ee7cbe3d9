package conversation

import (
	"context"

	"dischat/app/chat"
)

// Platform is the chat side: who we are, what was said, and how to answer.
type Platform interface {
	Identity(ctx context.Context) (chat.User, error)
	// FetchRecent returns messages oldest first. An empty beforeID means the newest page.
	FetchRecent(ctx context.Context, channelID string, limit int, beforeID string) ([]chat.Message, error)
	SendReply(ctx context.Context, channelID, text string, opts chat.ReplyOptions) (chat.Message, error)
	StartTyping(ctx context.Context, channelID string) error
}

// Generator produces reply drafts. Errors wrap chat.ErrRateLimited or chat.ErrOverloaded when
// the backend reports those conditions.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts chat.GenerateOptions) (string, error)
}
