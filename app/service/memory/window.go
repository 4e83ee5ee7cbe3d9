package memory

import (
	"fmt"
	"strings"

	"dischat/app/chat"

	"github.com/elliotchance/pie/v2"
)

// Window keeps the last size messages in arrival order.
type Window struct {
	size     int
	messages []chat.Message
}

func NewWindow(size int) *Window {
	return &Window{size: size}
}

// add appends msg and reports false when a message with the same id is already held.
func (w *Window) add(msg chat.Message) bool {
	if msg.ID != "" && pie.Any(w.messages, func(m chat.Message) bool { return m.ID == msg.ID }) {
		return false
	}

	if len(w.messages) >= w.size {
		w.messages = append(w.messages[1:], msg)
	} else {
		w.messages = append(w.messages, msg)
	}

	return true
}

func (w *Window) last(n int) []chat.Message {
	if n > len(w.messages) {
		n = len(w.messages)
	}

	return w.messages[len(w.messages)-n:]
}

func (w *Window) format() string {
	var builder strings.Builder

	for _, msg := range w.messages {
		builder.WriteString(fmt.Sprintf("%s: %s\n", authorName(msg.Author), msg.Content))
	}

	return strings.TrimSuffix(builder.String(), "\n")
}

func authorName(user chat.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}

	return user.ID
}
