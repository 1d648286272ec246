package chat

import "time"

const (
	titleLimit   = 30
	defaultTitle = "New Chat"
)

// Session groups an ordered message log under a recency-ordered history
// entry. A session is never persisted with zero messages.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeriveTitle computes a session title from its first message: the first 30
// code points of the text, with an ellipsis marker appended when truncated.
// An empty log falls back to a fixed label. An attachment-only first message
// yields an empty title, which the store tolerates.
func DeriveTitle(messages []Message) string {
	if len(messages) == 0 {
		return defaultTitle
	}
	runes := []rune(messages[0].Text)
	if len(runes) <= titleLimit {
		return string(runes)
	}
	return string(runes[:titleLimit]) + "..."
}
