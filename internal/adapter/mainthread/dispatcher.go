// Package mainthread provides the game-thread implementation of the
// MainThreadDispatcher interface: a bounded FIFO work queue drained by a
// single goroutine standing in for the game runtime's main thread.
package mainthread

import (
	"log/slog"
	"sync"

	"github.com/tidemark/soundlink/internal/ports"
)

// DefaultQueueSize is the default capacity of the work queue.
const DefaultQueueSize = 256

// Dispatcher is a bounded, single-consumer work queue.
//
// Thread-safety: Post may be called from any goroutine. Work is executed in
// FIFO order on one dedicated goroutine, so units of work never run
// concurrently with each other.
//
// Real-time behavior: Post never blocks. When the queue is full the work is
// dropped and Post returns false; producers on the engine's notification
// thread must not stall on a slow game thread.
type Dispatcher struct {
	logger *slog.Logger

	queue chan func()

	// mu serializes Close against Post so the queue channel is never
	// written after it is closed.
	mu     sync.RWMutex
	closed bool

	done chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue capacity and
// starts its consumer goroutine. A size of 0 falls back to DefaultQueueSize.
func NewDispatcher(logger *slog.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}

	d := &Dispatcher{
		logger: logger,
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
	}

	go d.run()

	return d
}

// Post enqueues fn for execution on the dispatcher goroutine.
// Returns false if the dispatcher is closed or the queue is full.
func (d *Dispatcher) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.queue <- fn:
		return true
	default:
		d.logger.Warn("main thread queue full, dropping work",
			slog.Int("capacity", cap(d.queue)))
		return false
	}
}

// Close stops the dispatcher. Work already queued is executed before Close
// returns. Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

// run drains the queue until it is closed and empty.
func (d *Dispatcher) run() {
	defer close(d.done)

	for fn := range d.queue {
		d.invoke(fn)
	}
}

// invoke calls one unit of work and recovers from panics.
func (d *Dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			// Work panicked - log it but keep the game thread alive
			d.logger.Error("main thread work panicked", slog.Any("panic", r))
		}
	}()

	fn()
}

// Verify that Dispatcher implements the MainThreadDispatcher interface
var _ ports.MainThreadDispatcher = (*Dispatcher)(nil)
