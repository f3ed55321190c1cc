// Package stream hands raw sample bytes from the device goroutine to the
// transform goroutine. Both strategies keep "closed" separate from "empty":
// a consumer only stops once the producer has closed the buffer and too few
// bytes remain.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrFull               = errors.New("stream buffer full")
	ErrClosed             = errors.New("stream buffer closed")
	ErrTimeout            = errors.New("timed out waiting for samples")
	ErrReservationPending = errors.New("reservation already outstanding")
	ErrShortConsume       = errors.New("consumed more than was readable")
	ErrUnknownKind        = errors.New("unknown stream buffer kind")
)

// Buffer is a single-producer, single-consumer byte FIFO.
type Buffer interface {
	// Offer copies chunk into the buffer without blocking. ErrFull and
	// ErrClosed mean the chunk was dropped.
	Offer(chunk []byte) error
	// Window waits until n bytes are readable and returns them without
	// consuming. The slice stays valid until Consume. A timeout <= 0 waits
	// until ctx ends or the buffer closes.
	Window(ctx context.Context, n int, timeout time.Duration) ([]byte, error)
	// Consume releases n bytes from the front; over-consuming panics.
	Consume(n int)
	Close()
	Closed() bool
	Buffered() int
}

type Kind string

const (
	RingKind  Kind = "ring"
	QueueKind Kind = "queue"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case RingKind, QueueKind:
		return k, nil
	case "":
		return RingKind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New builds a buffer for windows of window bytes. windows sizes the ring
// and is ignored by the queue.
func New(kind Kind, window, windows int) (Buffer, error) {
	switch kind {
	case RingKind:
		return NewRing(window, windows), nil
	case QueueKind:
		return NewQueue(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
