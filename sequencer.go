package maxchat

import "sync/atomic"

// Sequencer issues envelope sequence numbers. The first call to Next
// returns 1. It is safe for concurrent use.
type Sequencer struct {
	n atomic.Int64
}

// Next returns the next sequence number.
func (s *Sequencer) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last issued sequence number, or 0 if none.
func (s *Sequencer) Current() int64 {
	return s.n.Load()
}
