package humanize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"dischat/app/config"
	"dischat/app/util/random"

	"github.com/samber/do"
	"github.com/samber/lo"
)

// Service turns raw generated text into something that reads like a person typed it.
type Service struct {
	cfg config.Humanize
	rnd random.Source

	boilerplate []*regexp.Regexp
	cues        map[string]struct{}

	mu       sync.Mutex
	affinity map[string]int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	rnd := do.MustInvoke[random.Source](di)

	return NewService(cfg.Humanize, rnd), nil
}

func NewService(cfg config.Humanize, rnd random.Source) *Service {
	s := &Service{
		cfg:      cfg,
		rnd:      rnd,
		cues:     make(map[string]struct{}, len(cfg.QuestionCues)),
		affinity: make(map[string]int),
	}

	for _, phrase := range cfg.Boilerplate {
		s.boilerplate = append(s.boilerplate,
			regexp.MustCompile(`(?i)^`+regexp.QuoteMeta(phrase)+`\b[\s,.:;!]*`))
	}

	for _, cue := range cfg.QuestionCues {
		s.cues[strings.ToLower(cue)] = struct{}{}
	}

	return s
}

// Humanize runs the full pipeline. The result is never empty.
func (s *Service) Humanize(raw, authorID string, shouldTag bool) string {
	text, ok := s.Clean(raw)
	if !ok {
		text = s.cfg.DefaultReaction
	}

	text = s.naturalize(text)
	text = s.injectTypo(text, authorID)
	text = s.appendTail(text)
	text = s.closePunctuation(text)

	if shouldTag {
		text = s.placeMention(text, authorID)
	}

	return text
}

// Clean applies the deterministic steps: boilerplate, formatting and punctuation.
// It reports false when nothing meaningful survives.
func (s *Service) Clean(raw string) (string, bool) {
	text := s.stripBoilerplate(raw)
	text = s.stripFormatting(text)
	text = s.normalizePunctuation(text)

	if text == "" {
		return "", false
	}

	return text, true
}

// IsTooBotLike flags text that is only symbols, too short, or a single short word.
func (s *Service) IsTooBotLike(text string) bool {
	text = strings.TrimSpace(text)

	if strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) < 0 {
		return true
	}

	length := utf8.RuneCountInString(text)
	if length < s.cfg.MinLength {
		return true
	}

	return len(strings.Fields(text)) == 1 && length < s.cfg.SingleWordMin
}

func (s *Service) naturalize(text string) string {
	if len(s.cfg.Fillers) == 0 || s.startsWithFiller(text) {
		return text
	}
	if !s.IsTooBotLike(text) && s.rnd.Float64() >= lo.FromPtr(s.cfg.FillerChance) {
		return text
	}

	return random.Pick(s.rnd, s.cfg.Fillers) + " " + lowerFirst(text)
}

func (s *Service) injectTypo(text, authorID string) string {
	words := strings.Split(text, " ")

	var candidates []int
	for i, word := range words {
		core, _ := splitTrailingPunct(word)
		if _, ok := s.cfg.Substitutions[strings.ToLower(core)]; ok {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return text
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	affinity := s.affinity[authorID]
	if s.rnd.Float64() >= lo.FromPtr(s.cfg.TypoChance)*float64(affinity+1) {
		return text
	}

	idx := random.Pick(s.rnd, candidates)
	core, suffix := splitTrailingPunct(words[idx])
	words[idx] = s.cfg.Substitutions[strings.ToLower(core)] + suffix

	if affinity < s.cfg.TypoCap {
		s.affinity[authorID] = affinity + 1
	}

	return strings.Join(words, " ")
}

func (s *Service) appendTail(text string) string {
	if len(s.cfg.Tails) == 0 || s.endsWithTail(text) {
		return text
	}
	if s.rnd.Float64() >= lo.FromPtr(s.cfg.TailChance) {
		return text
	}

	return text + " " + random.Pick(s.rnd, s.cfg.Tails)
}

func (s *Service) closePunctuation(text string) string {
	if s.hasQuestionCue(text) {
		return strings.TrimRight(text, ".!?,;: ") + "?"
	}

	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	if s.rnd.Float64() < lo.FromPtr(s.cfg.PeriodChance) {
		return text + "."
	}

	return text
}

func (s *Service) placeMention(text, authorID string) string {
	token := MentionToken(authorID)
	if strings.Contains(text, token) {
		return text
	}

	switch s.rnd.IntN(3) {
	case 0:
		return token + " " + text
	case 1:
		if i := strings.IndexAny(text, ".?!,"); i >= 0 && i < len(text)-1 {
			return text[:i+1] + " " + token + " " + strings.TrimLeft(text[i+1:], " ")
		}
	}

	return text + " " + token
}

func (s *Service) startsWithFiller(text string) bool {
	lower := strings.ToLower(text)
	for _, filler := range s.cfg.Fillers {
		filler = strings.ToLower(filler)
		if lower == filler || strings.HasPrefix(lower, filler+" ") {
			return true
		}
	}

	return false
}

func (s *Service) endsWithTail(text string) bool {
	lower := strings.TrimRightFunc(strings.ToLower(text), unicode.IsPunct)
	for _, tail := range s.cfg.Tails {
		tail = strings.ToLower(tail)
		if lower == tail || strings.HasSuffix(lower, " "+tail) {
			return true
		}
	}

	return false
}

func (s *Service) hasQuestionCue(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) && r != '\''
		})
		if _, ok := s.cues[word]; ok {
			return true
		}
	}

	return false
}

// MentionToken is the platform mention markup for a user.
func MentionToken(userID string) string {
	return "<@" + userID + ">"
}
