package mailbox

import (
	"sync"
)

// Mailbox is an unbounded FIFO drained by a single goroutine.
// Push never blocks the producer; deliveries happen one at a time, in order,
// on the mailbox goroutine.
type Mailbox[T any] struct {
	mu      sync.Mutex
	queue   []T
	closed  bool
	drain   bool
	signal  chan struct{}
	stopped chan struct{}
	done    chan struct{}
}

// New starts a mailbox that hands every pushed item to deliver.
func New[T any](deliver func(T)) *Mailbox[T] {
	m := &Mailbox[T]{
		signal:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.run(deliver)
	return m
}

// Push enqueues v. Returns false if the mailbox is closed.
func (m *Mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// Close stops the mailbox and drops anything still queued.
// The item being delivered, if any, completes.
func (m *Mailbox[T]) Close() {
	m.close(false)
}

// CloseAndDrain stops accepting items but delivers everything already queued.
func (m *Mailbox[T]) CloseAndDrain() {
	m.close(true)
}

func (m *Mailbox[T]) close(drain bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.drain = drain
	if !drain {
		m.queue = nil
	}
	m.mu.Unlock()
	close(m.stopped)
}

// Done is closed once the mailbox goroutine has exited.
func (m *Mailbox[T]) Done() <-chan struct{} {
	return m.done
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox[T]) run(deliver func(T)) {
	defer close(m.done)
	for {
		select {
		case <-m.signal:
		case <-m.stopped:
		}

		for {
			v, ok, exit := m.next()
			if exit {
				return
			}
			if !ok {
				break
			}
			deliver(v)
		}
	}
}

// next pops the head of the queue.
// exit is true once the mailbox is closed and nothing is left to deliver.
func (m *Mailbox[T]) next() (v T, ok bool, exit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed && (!m.drain || len(m.queue) == 0) {
		return v, false, true
	}
	if len(m.queue) == 0 {
		return v, false, false
	}
	v = m.queue[0]
	var zero T
	m.queue[0] = zero
	m.queue = m.queue[1:]
	return v, true, false
}
