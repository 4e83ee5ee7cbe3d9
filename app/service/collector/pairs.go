package collector

import (
	"strings"
	"unicode/utf8"

	"dischat/app/chat"
	"dischat/app/service/pattern"
)

const minTriggerLength = 3

// Pairs extracts trigger/response pairs from a page ordered oldest first. A message answers
// the one right before it when both come from different people, and a reply answers its
// parent when the parent is on the same page.
func Pairs(batch []chat.Message, isAck func(string) bool) []pattern.Pattern {
	byID := make(map[string]chat.Message, len(batch))
	for _, msg := range batch {
		byID[msg.ID] = msg
	}

	var result []pattern.Pattern

	add := func(trigger, response chat.Message) {
		if trigger.Author.Bot || response.Author.Bot || trigger.Author.ID == response.Author.ID {
			return
		}

		text := strings.TrimSpace(trigger.Content)
		if utf8.RuneCountInString(text) < minTriggerLength || isAck(text) {
			return
		}
		if strings.TrimSpace(response.Content) == "" {
			return
		}

		result = append(result, pattern.Pattern{
			Trigger:   text,
			Response:  strings.TrimSpace(response.Content),
			Author:    response.Author.ID,
			CreatedAt: response.Timestamp,
		})
	}

	for i := 1; i < len(batch); i++ {
		add(batch[i-1], batch[i])
	}

	for _, msg := range batch {
		if parent, ok := byID[msg.ParentID]; ok && msg.ParentID != "" {
			add(parent, msg)
		}
	}

	return result
}
