package humanize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"dischat/app/chat"
)

var (
	formattingReplacer = strings.NewReplacer(
		"```", "",
		"**", "",
		"__", "",
		"~~", "",
		"||", "",
		"`", "",
		"*", "",
		`"`, "",
		"“", "",
		"”", "",
	)
	blockQuoteRe       = regexp.MustCompile(`(?m)^[ \t]*>+[ \t]?`)
	exclamationRunRe   = regexp.MustCompile(`!{2,}`)
	questionRunRe      = regexp.MustCompile(`\?{2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([,.?!])`)
)

func (s *Service) stripBoilerplate(text string) string {
	text = strings.TrimSpace(text)

	for range len(s.boilerplate) + 1 {
		changed := false
		for _, re := range s.boilerplate {
			if loc := re.FindStringIndex(text); loc != nil {
				text = strings.TrimSpace(text[loc[1]:])
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return text
}

func (s *Service) stripFormatting(text string) string {
	text = blockQuoteRe.ReplaceAllString(text, "")
	text = formattingReplacer.Replace(text)

	if s.cfg.StripEmoji == nil || *s.cfg.StripEmoji {
		text = strings.Map(func(r rune) rune {
			if chat.IsPictograph(r) {
				return -1
			}
			return r
		}, text)
	}

	return strings.TrimSpace(text)
}

func (s *Service) normalizePunctuation(text string) string {
	switch s.cfg.ExclamationPolicy {
	case "keep":
	case "collapse":
		text = exclamationRunRe.ReplaceAllString(text, "!")
	default:
		text = strings.ReplaceAll(text, "!", "")
	}

	text = questionRunRe.ReplaceAllString(text, "?")
	text = dropEchoedLine(text)
	text = strings.Join(strings.Fields(text), " ")
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")

	if strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsPunct(r) && !unicode.IsSpace(r)
	}) < 0 {
		return ""
	}

	return text
}

// dropEchoedLine removes a final line that only repeats the end of what precedes it.
func dropEchoedLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return text
	}

	last := strings.TrimSpace(lines[len(lines)-1])
	rest := strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
	if last == "" || rest == "" {
		return text
	}

	if strings.HasSuffix(strings.ToLower(rest), strings.ToLower(last)) {
		return rest
	}

	return text
}

func splitTrailingPunct(word string) (string, string) {
	core := strings.TrimRightFunc(word, unicode.IsPunct)
	return core, word[len(core):]
}

// lowerFirst lowercases a leading capital unless the first word is all caps or a lone "I".
func lowerFirst(text string) string {
	first, size := utf8.DecodeRuneInString(text)
	if !unicode.IsUpper(first) {
		return text
	}

	word := strings.Fields(text)[0]
	if word == "I" || strings.HasPrefix(word, "I'") || word == strings.ToUpper(word) {
		return text
	}

	return string(unicode.ToLower(first)) + text[size:]
}
