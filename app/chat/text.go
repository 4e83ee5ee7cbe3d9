package chat

import "strings"

// IsPictograph reports emoji, including the joiners and variation selectors that glue emoji
// sequences together. Plain symbols such as © ° ™ are not pictographs.
func IsPictograph(r rune) bool {
	switch {
	case r == '\u200d', r == '\ufe0f', r == '\ufe0e', r == '\u20e3':
		return true
	case r >= 0x1f000 && r <= 0x1faff:
		return true
	case r >= 0x2600 && r <= 0x27bf:
		return true
	case r >= 0x2300 && r <= 0x23ff, r >= 0x2b00 && r <= 0x2bff:
		return true
	}

	return false
}

func HasPictograph(s string) bool {
	return strings.IndexFunc(s, IsPictograph) >= 0
}

// Truncate cuts s to at most limit runes, ending with "..." when it had to cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	return string(runes[:limit-3]) + "..."
}
