// Package sequence numbers tree mutation events.
package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing event sequence numbers.
// The first number issued after New(start) is start+1.
type Sequencer struct {
	last atomic.Uint64
}

// New returns a sequencer whose last issued number is start. Pass 0 on a
// fresh outbox, or the outbox's LastSeq when resuming.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next issues the next sequence number.
func (s *Sequencer) Next() uint64 { return s.last.Add(1) }

// Last returns the most recently issued number (0 if none).
func (s *Sequencer) Last() uint64 { return s.last.Load() }

// Resume moves the sequencer forward to v. It never moves it backward, so
// numbers already handed out are not reissued.
func (s *Sequencer) Resume(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
