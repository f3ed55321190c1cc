package stream

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Queue is an unbounded FIFO of chunk copies. Offer only fails once closed.
// An empty queue is a lull, not the end of the stream.
type Queue struct {
	mu       sync.Mutex
	chunks   [][]byte
	buffered int
	staged   int
	closed   bool
	notify   chan struct{}

	// consumer side: bytes taken from chunks but not yet consumed
	stage []byte
}

func NewQueue() *Queue { return &Queue{notify: make(chan struct{}, 1)} }

func (q *Queue) Offer(chunk []byte) error {
	c := append([]byte(nil), chunk...)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.chunks = append(q.chunks, c)
	q.buffered += len(c)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() []byte {
	c := q.chunks[0]
	q.chunks[0] = nil
	q.chunks = q.chunks[1:]
	q.buffered -= len(c)
	return c
}

// Take removes the oldest chunk, blocking until one arrives, the queue
// closes empty (ErrClosed), or ctx ends.
func (q *Queue) Take(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.chunks) > 0 {
			c := q.pop()
			q.mu.Unlock()
			return c, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryTake removes the oldest chunk if there is one. A false result says
// nothing about whether more data will arrive; check Closed.
func (q *Queue) TryTake() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.chunks) == 0 {
		return nil, false
	}
	return q.pop(), true
}

// Window gathers chunks until n bytes are staged. A chunk of exactly n bytes
// is returned without copying.
func (q *Queue) Window(ctx context.Context, n int, timeout time.Duration) ([]byte, error) {
	if n <= 0 {
		panic(fmt.Sprintf("stream: window of %d", n))
	}
	ready := func() bool { return q.Buffered() >= n }
	if err := waitFor(ctx, timeout, ready, q.Closed); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.stage) < n {
		c := q.pop()
		if len(q.stage) == 0 {
			q.stage = c
		} else {
			q.stage = append(q.stage, c...)
		}
		q.staged += len(c)
	}
	return q.stage[:n], nil
}

func (q *Queue) Consume(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n < 0 || n > len(q.stage) {
		panic(fmt.Errorf("%w: %d of %d", ErrShortConsume, n, len(q.stage)))
	}
	q.stage = q.stage[n:]
	q.staged -= n
	if len(q.stage) == 0 {
		q.stage = nil
	}
}

// Buffered counts queued and staged bytes.
func (q *Queue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buffered + q.staged
}

func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
