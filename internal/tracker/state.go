package tracker

import (
	"sync"
	"time"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
)

// State owns the latest run's batch for the dashboard. It is passed by
// reference to whoever needs it and mutated in exactly one place: the
// pipeline's final transition. Readers get a copy.
type State struct {
	mu        sync.RWMutex
	latest    []domain.Posting
	updatedAt time.Time
}

func NewState() *State {
	return &State{}
}

// SetLatest replaces the published batch. Called once per completed run.
func (s *State) SetLatest(batch []domain.Posting, at time.Time) {
	cp := append([]domain.Posting(nil), batch...)
	s.mu.Lock()
	s.latest = cp
	s.updatedAt = at
	s.mu.Unlock()
}

// Latest returns a copy of the published batch and its timestamp. The zero
// timestamp means no run has completed yet.
func (s *State) Latest() ([]domain.Posting, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Posting(nil), s.latest...), s.updatedAt
}
