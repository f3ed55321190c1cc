package stream

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestQueueTryTakeLullIsNotEnd(t *testing.T) {
	q := NewQueue()
	if _, ok := q.TryTake(); ok {
		t.Fatal("expected empty queue")
	}
	if q.Closed() {
		t.Fatal("empty queue reported closed")
	}
	q.Offer([]byte{1, 2})
	c, ok := q.TryTake()
	if !ok || !bytes.Equal(c, []byte{1, 2}) {
		t.Fatalf("expected chunk after lull, got %v %v", c, ok)
	}
}

func TestQueueTakeBlocks(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.TODO(), 5*time.Second)
	defer cancel()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Offer([]byte{9})
	}()
	c, err := q.Take(ctx)
	if err != nil || !bytes.Equal(c, []byte{9}) {
		t.Fatalf("expected blocked take to receive chunk, got %v %v", c, err)
	}

	cctx, ccancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(10 * time.Millisecond)
		ccancel()
	}()
	if _, err := q.Take(cctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestQueueOfferCopies(t *testing.T) {
	q := NewQueue()
	b := []byte{1, 2, 3, 4}
	q.Offer(b)
	b[0] = 99
	w, err := q.Window(context.TODO(), 4, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if w[0] != 1 {
		t.Fatal("queue aliased the producer's chunk")
	}
}

func TestQueueWindowAcrossChunks(t *testing.T) {
	ctx := context.TODO()
	q := NewQueue()
	q.Offer(seq(0, 3))
	q.Offer(seq(3, 3))
	q.Offer(seq(6, 4))
	w, err := q.Window(ctx, 5, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w, seq(0, 5)) {
		t.Fatalf("unexpected first window %v", w)
	}
	q.Consume(5)
	if q.Buffered() != 5 {
		t.Fatalf("expected 5 buffered, got %d", q.Buffered())
	}
	if w, err = q.Window(ctx, 5, time.Second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w, seq(5, 5)) {
		t.Fatalf("unexpected second window %v", w)
	}
	q.Consume(5)
	if q.Buffered() != 0 {
		t.Fatalf("expected drained queue, got %d", q.Buffered())
	}
}

func TestQueueCloseDrains(t *testing.T) {
	ctx := context.TODO()
	q := NewQueue()
	q.Offer(seq(0, 4))
	q.Close()
	if err := q.Offer(seq(0, 4)); err != ErrClosed {
		t.Fatalf("expected ErrClosed offer, got %v", err)
	}
	if _, err := q.Window(ctx, 4, time.Second); err != nil {
		t.Fatalf("expected committed bytes after close, got %v", err)
	}
	q.Consume(4)
	if _, err := q.Window(ctx, 4, time.Second); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := q.Take(ctx); err != ErrClosed {
		t.Fatalf("expected ErrClosed take, got %v", err)
	}
}

func TestQueueOverConsumePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewQueue().Consume(1)
}
