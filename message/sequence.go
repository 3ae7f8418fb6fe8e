package message

import "sync"

// MaxMessageID is the largest identifier handed out by a Sequencer. The relay
// carries identifiers as four-digit numbers; the counter wraps to 1 after it.
const MaxMessageID = 9999

// Sequencer generates message identifiers for one session. Identifiers seen
// in inbound traffic are folded in so locally generated ones never reuse
// them. It is safe for concurrent use.
type Sequencer struct {
	mu   sync.Mutex
	last int
}

// NewSequencer returns a Sequencer whose first identifier is 1.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next returns an identifier greater than any identifier returned or
// observed before, until the counter wraps past MaxMessageID.
func (s *Sequencer) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	if s.last > MaxMessageID {
		s.last = 1
	}
	return s.last
}

// Observe records an identifier seen in inbound traffic. Identifiers out of
// range are ignored.
func (s *Sequencer) Observe(id int) {
	if id < 1 || id > MaxMessageID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}

// Last returns the most recent identifier returned or observed.
func (s *Sequencer) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
