//go:build !windows

// Package wakeq is a queue that a poll loop can wait on.
// Producers on any goroutine push items, the descriptor returned by Fd
// reads as ready until the consumer drains them.
package wakeq

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Queue holds items in push order behind a self-pipe.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	r, w   int
	closed bool
}

// New creates an empty queue.
func New[T any]() (*Queue[T], error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return nil, err
		}
	}
	return &Queue[T]{r: p[0], w: p[1]}, nil
}

// Push appends items. It does nothing once the queue is closed.
func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	wake := len(q.items) == 0
	q.items = append(q.items, items...)
	if wake {
		// a full pipe is already readable
		_, _ = unix.Write(q.w, []byte{1})
	}
}

// Drain removes and returns everything queued, oldest first.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}

	var buf [64]byte
	for {
		n, err := unix.Read(q.r, buf[:])
		if n <= 0 || err != nil {
			break
		}
	}
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Fd returns the descriptor to poll for readability, -1 after Close.
func (q *Queue[T]) Fd() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return -1
	}
	return q.r
}

// Close releases the pipe. Queued items are dropped.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	q.items = nil

	err := unix.Close(q.r)
	if werr := unix.Close(q.w); err == nil {
		err = werr
	}
	return err
}
