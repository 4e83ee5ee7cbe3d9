package budget

import (
	"dischat/app/config"
	"dischat/app/util/clock"

	"github.com/samber/do"
)

// Service owns one tracker per guarded API.
type Service struct {
	Generation *Tracker
	Polling    *Tracker
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	clk := do.MustInvoke[clock.Clock](di)

	return &Service{
		Generation: NewTracker("generation", cfg.Budget.Generation, clk),
		Polling:    NewTracker("polling", cfg.Budget.Polling, clk),
	}, nil
}

func (s *Service) Snapshots() []Snapshot {
	return []Snapshot{s.Generation.Snapshot(), s.Polling.Snapshot()}
}
