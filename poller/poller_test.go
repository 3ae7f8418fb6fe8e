package poller

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterTask(n *int32) Task {
	return func() error {
		atomic.AddInt32(n, 1)
		return nil
	}
}

func TestPollerIntervalBounds(t *testing.T) {
	p := New(logrus.StandardLogger(), counterTask(new(int32)))
	require.NoError(t, p.SetInterval(15, 30))

	var seenMin, seenMax bool
	for i := 0; i < 2000; i++ {
		d := p.nextInterval()
		require.True(t, d >= 15*time.Second && d <= 30*time.Second, "interval %s out of bounds", d)
		seenMin = seenMin || d == 15*time.Second
		seenMax = seenMax || d == 30*time.Second
	}
	assert.True(t, seenMin, "lower bound is inclusive")
	assert.True(t, seenMax, "upper bound is inclusive")
}

func TestPollerSetIntervalRejected(t *testing.T) {
	p := New(logrus.StandardLogger(), counterTask(new(int32)))
	require.NoError(t, p.SetInterval(15, 30))

	err := p.SetInterval(20, 10)

	assert.True(t, errors.Is(err, ErrInvalidInterval))
	min, max := p.Interval()
	assert.Equal(t, 15, min)
	assert.Equal(t, 30, max)
}

func TestPollerSetIntervalNegative(t *testing.T) {
	p := New(logrus.StandardLogger(), counterTask(new(int32)))
	require.NoError(t, p.SetInterval(15, 30))

	tests := map[string][2]int{
		"Negative min":  {-1, 10},
		"Both negative": {-5, -1},
		"Negative max":  {-1, -2},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := p.SetInterval(tc[0], tc[1])

			assert.True(t, errors.Is(err, ErrInvalidInterval))
			min, max := p.Interval()
			assert.Equal(t, 15, min)
			assert.Equal(t, 30, max)
		})
	}
}

func TestPollerStartStop(t *testing.T) {
	var count int32
	p := New(logrus.StandardLogger(), counterTask(&count))
	p.unit = time.Millisecond
	require.NoError(t, p.SetInterval(1, 2))

	p.Stop() // Not running yet.
	p.Start()
	p.Start()
	assert.True(t, p.Running())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	stopped := atomic.LoadInt32(&count)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&count), "no cycle may run after Stop returns")

	// The poller can be restarted.
	p.Start()
	defer p.Stop()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) > stopped }, time.Second, time.Millisecond)
}

func TestPollerTaskFailuresAreIsolated(t *testing.T) {
	var count int32
	p := New(logrus.StandardLogger(), func() error {
		switch atomic.AddInt32(&count, 1) {
		case 1:
			return errors.New("relay unreachable")
		case 2:
			panic("unexpected response")
		}
		return nil
	})
	p.unit = time.Millisecond
	require.NoError(t, p.SetInterval(0, 1))

	p.Start()
	defer p.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 4 }, time.Second, time.Millisecond)
}

func TestPollerStopInterruptsWait(t *testing.T) {
	var count int32
	p := New(logrus.StandardLogger(), counterTask(&count))
	p.unit = time.Hour
	require.NoError(t, p.SetInterval(1, 1))

	p.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the pending interval")
	}
}
