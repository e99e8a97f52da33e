// Package ports defines the MainThreadDispatcher interface for marshalling
// work from the sound engine's internal thread onto the game thread.
package ports

// MainThreadDispatcher hands units of work from arbitrary threads to the
// game thread for ordered, asynchronous execution.
//
// Thread-safety: Post may be called from any goroutine, including the sound
// engine's notification thread.
type MainThreadDispatcher interface {
	// Post enqueues fn for execution on the game thread and returns
	// immediately. Work is executed in FIFO order relative to other posted
	// work.
	//
	// Post never blocks: it returns false if the queue is full or the
	// dispatcher is closed, and the work is dropped. Callers on real-time
	// threads must tolerate drops rather than stalls.
	Post(fn func()) bool

	// Close stops the dispatcher. Work already queued is executed before
	// Close returns; subsequent Post calls return false.
	Close()
}
