package message

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		s := NewSequencer()
		var highest int
		for i := 0; i < 200; i++ {
			if r.Intn(3) == 0 {
				id := r.Intn(5000) + 1
				s.Observe(id)
				if id > highest {
					highest = id
				}
				continue
			}
			id := s.Next()
			require.Greater(t, id, highest)
			highest = id
		}
	}
}

func TestSequencerIgnoresOutOfRange(t *testing.T) {
	s := NewSequencer()
	s.Observe(-1)
	s.Observe(0)
	s.Observe(MaxMessageID + 1)

	assert.Equal(t, 1, s.Next())
}

func TestSequencerWraps(t *testing.T) {
	s := NewSequencer()
	s.Observe(MaxMessageID)

	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Next())
}

func TestSequencerConcurrent(t *testing.T) {
	s := NewSequencer()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int]bool{}
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := s.Next()
				mu.Lock()
				ids[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.Observe(i)
		}
	}()
	wg.Wait()

	assert.Len(t, ids, 800, "identifiers must be unique")
}
