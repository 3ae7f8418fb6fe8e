// Package poller runs a task periodically with a randomized delay between
// invocations.
package poller

import (
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMinInterval = 15
	DefaultMaxInterval = 30
)

// ErrInvalidInterval is returned by SetInterval when a bound is negative or
// min > max.
var ErrInvalidInterval = errors.New("invalid poll interval")

// Task is the function invoked on every cycle.
type Task func() error

// Poller invokes a Task repeatedly, waiting a random number of seconds drawn
// from [min, max] between invocations.
//
// Errors and panics raised by the task are logged and do not stop the loop.
// Stop blocks until the loop goroutine has exited.
type Poller struct {
	logger logrus.FieldLogger
	task   Task

	// unit is the length of one interval step. Tests shrink it.
	unit time.Duration

	mu   sync.Mutex
	min  int
	max  int
	rand *rand.Rand

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	stop      chan chan struct{}
}

// New returns a stopped Poller using the default interval bounds.
func New(logger logrus.FieldLogger, task Task) *Poller {
	return &Poller{
		logger: logger,
		task:   task,
		unit:   time.Second,
		min:    DefaultMinInterval,
		max:    DefaultMaxInterval,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetInterval updates the bounds in seconds. The previous bounds are kept
// when the new ones are rejected.
func (p *Poller) SetInterval(min, max int) error {
	if min < 0 {
		p.logger.Errorf("Interval must not be negative but got %d", min)
		return errors.Wrapf(ErrInvalidInterval, "negative min_interval=%d", min)
	}
	if min > max {
		p.logger.Errorf("Min interval must be less than max interval but got %d and %d", min, max)
		return errors.Wrapf(ErrInvalidInterval, "min_interval=%d > max_interval=%d", min, max)
	}
	p.mu.Lock()
	p.min, p.max = min, max
	p.mu.Unlock()
	return nil
}

// Interval returns the current bounds in seconds.
func (p *Poller) Interval() (min, max int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.min, p.max
}

// nextInterval draws the delay before the next invocation.
func (p *Poller) nextInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.min + p.rand.Intn(p.max-p.min+1)
	return time.Duration(n) * p.unit
}

// Running reports whether the loop goroutine is alive.
func (p *Poller) Running() bool {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.stop != nil
}

// Start launches the loop. It is a no-op if the loop is already running.
func (p *Poller) Start() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.stop != nil {
		return
	}
	p.logger.Debug("Poll loop starting")
	p.stop = make(chan chan struct{})
	go p.loop(p.stop)
}

// Stop signals the loop to exit and waits until it does. A cycle in progress
// is allowed to finish. It is a no-op if the loop is not running.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.stop == nil {
		return
	}
	p.logger.Debug("Poll loop stopping")
	ch := make(chan struct{})
	p.stop <- ch
	<-ch
	p.stop = nil
}

func (p *Poller) loop(stop chan chan struct{}) {
	p.logger.WithField("at", time.Now().Format(time.RFC3339)).Debug("Poll loop started")
	for {
		interval := p.nextInterval()
		p.run()

		timer := time.NewTimer(interval)
		select {
		case ch := <-stop:
			timer.Stop()
			p.logger.WithField("at", time.Now().Format(time.RFC3339)).Debug("Poll loop stopped")
			close(ch)
			return
		case <-timer.C:
		}
	}
}

// run invokes the task in panic recovery mode.
func (p *Poller) run() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("Poll task panic! %s %s", r, debug.Stack())
		}
	}()
	if err := p.task(); err != nil {
		p.logger.Errorf("Error occurred while polling: %v", err)
		return
	}
	p.logger.Debugf("Poll cycle took %s", time.Since(start))
}
