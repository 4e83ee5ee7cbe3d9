package chat

import (
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
)

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Bot         bool   `json:"bot"`
}

// Message is a channel message as fetched from the platform. It is never mutated after fetch.
type Message struct {
	ID             string    `json:"id"`
	ChannelID      string    `json:"channel_id"`
	Author         User      `json:"author"`
	Content        string    `json:"content"`
	ParentID       string    `json:"parent_id,omitempty"`
	ParentAuthorID string    `json:"parent_author_id,omitempty"`
	Mentions       []string  `json:"mentions,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m Message) MentionsUser(userID string) bool {
	return userID != "" && pie.Contains(m.Mentions, userID)
}

type ReplyOptions struct {
	ParentMessageID string
	MentionUserIDs  []string
}

type GenerateOptions struct {
	Temperature float32
	MaxTokens   int32
	TopP        float32
	TopK        int32
}

// CompareIDs orders platform snowflake ids: -1 if a is older than b, 1 if newer, 0 if equal.
// Empty ids sort before everything.
func CompareIDs(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}

	return strings.Compare(a, b)
}

// NewerThan reports whether id is strictly newer than ref. Everything is newer than an empty ref.
func NewerThan(id, ref string) bool {
	if ref == "" {
		return id != ""
	}

	return CompareIDs(id, ref) > 0
}
