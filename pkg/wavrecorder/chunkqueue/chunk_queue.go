// Package chunkqueue bridges callback-driven native capture APIs to the
// blocking, timeout-bounded reads the capture loop performs.
package chunkqueue

import (
	"context"
	"io"
	"sync"
	"time"
)

// Queue is an unbounded FIFO of byte chunks. Push never blocks.
type Queue struct {
	locker  sync.Mutex
	chunks  [][]byte
	partial []byte
	notify  chan struct{}
	closed  bool
}

func New() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Write copies p into the queue; it implements io.Writer so the queue
// can be given directly to writer-based native APIs.
func (q *Queue) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)

	q.locker.Lock()
	if q.closed {
		q.locker.Unlock()
		return 0, io.ErrClosedPipe
	}
	q.chunks = append(q.chunks, chunk)
	q.locker.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Push is Write for callbacks that have nowhere to report an error.
func (q *Queue) Push(p []byte) {
	_, _ = q.Write(p)
}

// Read fills p with queued bytes. It returns (0, nil) if nothing arrived
// within timeout, and io.EOF once the queue is closed and drained.
func (q *Queue) Read(
	ctx context.Context,
	p []byte,
	timeout time.Duration,
) (int, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		q.locker.Lock()
		n := q.readLocked(p)
		closed := q.closed
		q.locker.Unlock()
		switch {
		case n > 0:
			return n, nil
		case closed:
			return 0, io.EOF
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, nil
		case <-q.notify:
		}
	}
}

func (q *Queue) readLocked(p []byte) int {
	n := 0
	for n < len(p) {
		if len(q.partial) == 0 {
			if len(q.chunks) == 0 {
				break
			}
			q.partial = q.chunks[0]
			q.chunks[0] = nil
			q.chunks = q.chunks[1:]
		}
		copied := copy(p[n:], q.partial)
		q.partial = q.partial[copied:]
		n += copied
	}
	return n
}

// Len returns the amount of queued bytes.
func (q *Queue) Len() int {
	q.locker.Lock()
	defer q.locker.Unlock()
	total := len(q.partial)
	for _, chunk := range q.chunks {
		total += len(chunk)
	}
	return total
}

// Close wakes blocked readers; already queued bytes stay readable.
func (q *Queue) Close() error {
	q.locker.Lock()
	q.closed = true
	q.locker.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}
