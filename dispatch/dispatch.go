// Package dispatch fans values out to registered observers without blocking
// the caller.
//
// Every observer runs as an independent task on a bounded Pool. There is no
// ordering between observers of the same notification, and a failing or
// panicking observer does not affect its siblings.
package dispatch

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/JiscSD/cpdlc-channel-adapter/message"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultWorkers is the default number of concurrent observer executions.
const DefaultWorkers = 8

// Pool executes tasks on at most workers goroutines. Tasks wait in an
// unbounded FIFO queue, so Submit never blocks. Workers are started on demand
// and exit once the queue is drained.
type Pool struct {
	logger   logrus.FieldLogger
	workers  int
	wg       sync.WaitGroup
	failures prometheus.Counter

	mu     sync.Mutex
	queue  []task
	active int
}

type task struct {
	name string
	fn   func() error
}

// NewPool returns a Pool running at most workers tasks at once. failures may
// be nil.
func NewPool(logger logrus.FieldLogger, workers int, failures prometheus.Counter) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{
		logger:   logger,
		workers:  workers,
		failures: failures,
	}
}

// Submit schedules fn and returns immediately.
func (p *Pool) Submit(name string, fn func() error) {
	p.wg.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, task{name: name, fn: fn})
	if p.active < p.workers {
		p.active++
		go p.work()
	}
}

// work runs queued tasks until the queue is empty.
func (p *Pool) work() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.active--
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = task{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(t)
	}
}

func (p *Pool) run(t task) {
	defer p.wg.Done()
	if err := p.safeCall(t.fn); err != nil {
		if p.failures != nil {
			p.failures.Inc()
		}
		p.logger.WithField("observer", t.name).Errorf("Exception occurred while calling callback: %v", err)
	}
}

// safeCall runs fn in panic recovery mode.
func (p *Pool) safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic! %s %s", r, debug.Stack())
		}
	}()
	return fn()
}

// Wait blocks until every submitted task has completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// InboundObserver is notified of every envelope received from the relay.
type InboundObserver func(env *message.Envelope) error

// OutboundObserver is notified of every message sent to a station.
type OutboundObserver func(station, text string) error

// Callback is notified of session events that carry no value.
type Callback func() error

// Inbound is the dispatch channel of inbound envelopes.
type Inbound struct {
	pool      *Pool
	mu        sync.RWMutex
	observers []InboundObserver
}

// NewInbound returns an Inbound channel executing on pool.
func NewInbound(pool *Pool) *Inbound {
	return &Inbound{pool: pool}
}

// Register appends an observer.
func (d *Inbound) Register(fn InboundObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Notify schedules every observer with env.
func (d *Inbound) Notify(env *message.Envelope) {
	d.mu.RLock()
	observers := d.observers
	d.mu.RUnlock()
	for i, fn := range observers {
		fn := fn
		d.pool.Submit(fmt.Sprintf("inbound#%d", i), func() error { return fn(env) })
	}
}

// Outbound is the dispatch channel of outbound messages.
type Outbound struct {
	pool      *Pool
	mu        sync.RWMutex
	observers []OutboundObserver
}

// NewOutbound returns an Outbound channel executing on pool.
func NewOutbound(pool *Pool) *Outbound {
	return &Outbound{pool: pool}
}

// Register appends an observer.
func (d *Outbound) Register(fn OutboundObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Notify schedules every observer with station and text.
func (d *Outbound) Notify(station, text string) {
	d.mu.RLock()
	observers := d.observers
	d.mu.RUnlock()
	for i, fn := range observers {
		fn := fn
		d.pool.Submit(fmt.Sprintf("outbound#%d", i), func() error { return fn(station, text) })
	}
}

// Signal is a dispatch channel of valueless callbacks, e.g. connect events.
type Signal struct {
	name      string
	pool      *Pool
	mu        sync.RWMutex
	callbacks []Callback
}

// NewSignal returns a Signal executing on pool. name is used in logs.
func NewSignal(name string, pool *Pool) *Signal {
	return &Signal{name: name, pool: pool}
}

// Register appends a callback.
func (d *Signal) Register(fn Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, fn)
}

// Notify schedules every callback.
func (d *Signal) Notify() {
	d.mu.RLock()
	callbacks := d.callbacks
	d.mu.RUnlock()
	for i, fn := range callbacks {
		d.pool.Submit(fmt.Sprintf("%s#%d", d.name, i), fn)
	}
}
