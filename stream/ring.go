package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Ring is a fixed-capacity byte ring with a two-phase reserve/commit write
// protocol. written and read only grow; their difference is the readable
// length. A reservation that would cross the physical end is staged in a
// producer-owned scratch slice and split on Commit, so any free space is
// reservable as one contiguous view. A readable span that crosses the end is
// presented through a consumer-owned shadow copy.
type Ring struct {
	buf     []byte
	written atomic.Uint64
	read    atomic.Uint64
	closed  atomic.Bool

	// producer side
	resv    []byte
	scratch []byte

	// consumer side
	shadow []byte
}

// NewRing sizes a ring to hold windows transform windows of window bytes;
// fewer than two windows are rounded up to two.
func NewRing(window, windows int) *Ring {
	if window <= 0 {
		panic("stream: ring window must be positive")
	}
	if windows < 2 {
		windows = 2
	}
	return &Ring{buf: make([]byte, window*windows)}
}

func (r *Ring) Cap() int { return len(r.buf) }

// Committed is the total number of bytes ever committed.
func (r *Ring) Committed() uint64 { return r.written.Load() }

// Consumed is the total number of bytes ever consumed.
func (r *Ring) Consumed() uint64 { return r.read.Load() }

func (r *Ring) Buffered() int { return int(r.written.Load() - r.read.Load()) }

func (r *Ring) Free() int { return len(r.buf) - r.Buffered() }

// Reserve returns a writable view of n bytes. It fails with ErrFull when
// fewer than n bytes are free.
func (r *Ring) Reserve(n int) ([]byte, error) {
	if r.resv != nil {
		return nil, ErrReservationPending
	}
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if n <= 0 || n > r.Free() {
		return nil, ErrFull
	}
	pos := int(r.written.Load() % uint64(len(r.buf)))
	if pos+n <= len(r.buf) {
		r.resv = r.buf[pos : pos+n]
		return r.resv, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]byte, n)
	}
	r.resv = r.scratch[:n]
	return r.resv, nil
}

// Commit publishes the outstanding reservation to the consumer.
func (r *Ring) Commit() {
	if r.resv == nil {
		panic("stream: commit without reservation")
	}
	n := len(r.resv)
	w := r.written.Load()
	pos := int(w % uint64(len(r.buf)))
	if pos+n > len(r.buf) {
		k := copy(r.buf[pos:], r.resv)
		copy(r.buf, r.resv[k:])
	}
	r.resv = nil
	r.written.Store(w + uint64(n))
}

// Abort drops the outstanding reservation without publishing it.
func (r *Ring) Abort() { r.resv = nil }

func (r *Ring) Offer(chunk []byte) error {
	b, err := r.Reserve(len(chunk))
	if err != nil {
		return err
	}
	copy(b, chunk)
	r.Commit()
	return nil
}

// ReadableView returns every committed, unconsumed byte as one slice.
func (r *Ring) ReadableView() []byte { return r.view(r.Buffered()) }

// view returns the first n readable bytes; n must not exceed Buffered.
func (r *Ring) view(n int) []byte {
	if n == 0 {
		return nil
	}
	pos := int(r.read.Load() % uint64(len(r.buf)))
	if pos+n <= len(r.buf) {
		return r.buf[pos : pos+n]
	}
	if cap(r.shadow) < n {
		r.shadow = make([]byte, len(r.buf))
	}
	k := copy(r.shadow[:n], r.buf[pos:])
	copy(r.shadow[k:n], r.buf)
	return r.shadow[:n]
}

func (r *Ring) Consume(n int) {
	rd := r.read.Load()
	if n < 0 || uint64(n) > r.written.Load()-rd {
		panic(fmt.Errorf("%w: %d of %d", ErrShortConsume, n, r.Buffered()))
	}
	r.read.Store(rd + uint64(n))
}

func (r *Ring) Window(ctx context.Context, n int, timeout time.Duration) ([]byte, error) {
	if n <= 0 || n > len(r.buf) {
		panic(fmt.Sprintf("stream: window of %d from ring of %d", n, len(r.buf)))
	}
	ready := func() bool { return r.Buffered() >= n }
	if err := waitFor(ctx, timeout, ready, r.closed.Load); err != nil {
		return nil, err
	}
	return r.view(n), nil
}

// Close marks the producer as finished; committed bytes stay readable.
func (r *Ring) Close() { r.closed.Store(true) }

func (r *Ring) Closed() bool { return r.closed.Load() }
