// Package board keeps the live attendance board: the daily report for the
// date an admin is watching, pushed to every connected viewer.
package board

import (
	"context"
	"sync"
)

// Sequencer orders overlapping fetches so only the latest one is applied.
// Starting a fetch cancels the one it supersedes.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// Begin starts a fetch and returns its sequence number and a context that is
// cancelled when a newer fetch begins. done must be called when the fetch ends.
func (s *Sequencer) Begin(ctx context.Context) (seq uint64, fctx context.Context, done func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	fctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	seq = s.latest
	return seq, fctx, func() {
		cancel()
		s.mu.Lock()
		if s.latest == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
	}
}

// IsLatest reports whether seq belongs to the most recent fetch.
func (s *Sequencer) IsLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.latest
}

// Latest returns the most recent sequence number, 0 before any fetch.
func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
