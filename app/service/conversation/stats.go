package conversation

import "time"

type Stats struct {
	Ticks            int64     `json:"ticks"`
	Replies          int64     `json:"replies"`
	Failures         int64     `json:"failures"`
	GenerationCalls  int64     `json:"generation_calls"`
	Generated        int64     `json:"generated"`
	PatternFallbacks int64     `json:"pattern_fallbacks"`
	CannedFallbacks  int64     `json:"canned_fallbacks"`
	LastHandledID    string    `json:"last_handled_id"`
	LastResponse     time.Time `json:"last_response"`
	RateLimited      bool      `json:"rate_limited"`
	Queued           int       `json:"queued"`
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	result := s.stats
	result.LastHandledID = s.lastHandledID
	result.LastResponse = s.lastResponse
	s.mu.RUnlock()

	result.RateLimited = s.budgetSvc.Generation.RateLimited()
	result.Queued = s.queueSvc.Len()

	return result
}
