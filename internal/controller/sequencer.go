package controller

import "sync/atomic"

// sequencer hands out increasing request numbers; only the latest one may touch the display.
type sequencer struct {
	last atomic.Uint64
}

func (s *sequencer) next() uint64 {
	return s.last.Add(1)
}

func (s *sequencer) isLatest(seq uint64) bool {
	return s.last.Load() == seq
}
