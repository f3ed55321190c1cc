package spectrum

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/stream"
)

// Worker is the transform loop: wait for a window, transform it, release it,
// publish the frame.
type Worker struct {
	buf     stream.Buffer
	t       *Transformer
	out     *Latest
	timeout time.Duration
	log     *zap.Logger

	progress func() uint64
	patience func() time.Duration

	seq   uint64
	stats stream.WorkerStats
}

// NewWorker builds a worker; timeout bounds each wait for data.
func NewWorker(buf stream.Buffer, t *Transformer, out *Latest, timeout time.Duration, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{buf: buf, t: t, out: out, timeout: timeout, log: log}
}

// WatchProgress makes wait timeouts fatal only once the producer stalls.
// progress is a counter the producer bumps per delivery; patience is how
// long it may stay still, never less than the wait timeout.
func (w *Worker) WatchProgress(progress func() uint64, patience func() time.Duration) {
	w.progress, w.patience = progress, patience
}

// Run loops until the buffer closes (nil), ctx ends (nil), or the producer
// stops delivering (stream.ErrTimeout). In counts windows taken, Out frames
// published and Dropped frames overwritten before anyone read them.
func (w *Worker) Run(ctx context.Context) (stream.Stats, error) {
	n := w.t.WindowSize()
	var last uint64
	since := time.Now()
	if w.progress != nil {
		last = w.progress()
	}
	for {
		raw, err := w.buf.Window(ctx, n, w.timeout)
		switch {
		case err == nil:
		case errors.Is(err, stream.ErrTimeout) && !w.stalled(&last, &since):
			w.log.Debug("input slow, still waiting", zap.Uint64("progress", last))
			continue
		case errors.Is(err, stream.ErrClosed):
			w.log.Info("stream closed", zap.Uint64("frames", w.stats.Out.Load()))
			return w.stats.Snapshot(), nil
		case ctx.Err() != nil:
			return w.stats.Snapshot(), nil
		default:
			w.log.Warn("transform stopped", zap.Error(err))
			return w.stats.Snapshot(), err
		}
		if w.progress != nil {
			last, since = w.progress(), time.Now()
		}
		w.stats.In.Add(1)
		bins := w.t.Transform(raw)
		w.buf.Consume(n)
		w.seq++
		if w.out.Publish(&Frame{Seq: w.seq, Bins: bins}) {
			w.stats.Dropped.Add(1)
		}
		w.stats.Out.Add(1)
	}
}

// stalled reports whether the producer has made no progress for longer than
// it is allowed to.
func (w *Worker) stalled(last *uint64, since *time.Time) bool {
	if w.progress == nil {
		return true
	}
	if n := w.progress(); n != *last {
		*last, *since = n, time.Now()
		return false
	}
	limit := w.timeout
	if w.patience != nil {
		limit = max(limit, w.patience())
	}
	return time.Since(*since) >= limit
}

func (w *Worker) Stats() stream.Stats { return w.stats.Snapshot() }
