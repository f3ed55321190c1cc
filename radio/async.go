package radio

import (
	"errors"
	"sync"
	"time"
)

var errCancelled = errors.New("read cancelled")

// asyncRead runs a callback loop over a small set of rotating buffers until
// cancelled. A cancel that arrives before the loop starts is kept so the next
// loop returns immediately.
type asyncRead struct {
	mu       sync.Mutex
	donec    chan struct{}
	pending  bool
	onCancel func()
}

func (a *asyncRead) begin() (<-chan struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.donec != nil {
		return nil, ErrReadInProgress
	}
	a.donec = make(chan struct{})
	if a.pending {
		a.pending = false
		close(a.donec)
	}
	return a.donec, nil
}

func (a *asyncRead) end() {
	a.mu.Lock()
	a.donec = nil
	a.mu.Unlock()
}

func (a *asyncRead) cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.donec == nil {
		a.pending = true
		return
	}
	select {
	case <-a.donec:
		return
	default:
	}
	close(a.donec)
	if a.onCancel != nil {
		a.onCancel()
	}
}

// run fills each buffer in turn and hands it to cb. A fill error after
// cancellation is treated as a clean stop.
func (a *asyncRead) run(nBuffers, bufLen int, fill func(done <-chan struct{}, b []byte) error, cb func([]byte)) error {
	if nBuffers <= 0 || bufLen <= 0 || bufLen%2 != 0 {
		return ErrBadBufferSize
	}
	donec, err := a.begin()
	if err != nil {
		return err
	}
	defer a.end()
	bufs := make([][]byte, nBuffers)
	for i := range bufs {
		bufs[i] = make([]byte, bufLen)
	}
	for i := 0; ; i = (i + 1) % nBuffers {
		select {
		case <-donec:
			return nil
		default:
		}
		if err := fill(donec, bufs[i]); err != nil {
			select {
			case <-donec:
				return nil
			default:
			}
			return err
		}
		cb(bufs[i])
	}
}

// pacer spaces out sample delivery to match a sample rate.
type pacer struct {
	start   time.Time
	samples uint64
	rate    uint32
}

// wait blocks until n more samples are due at rate. It returns false if done
// closes first. A rate change restarts the schedule.
func (p *pacer) wait(done <-chan struct{}, n int, rate uint32) bool {
	if rate == 0 {
		rate = 1
	}
	if p.start.IsZero() || p.rate != rate {
		p.start, p.samples, p.rate = time.Now(), 0, rate
	}
	p.samples += uint64(n)
	due := p.start.Add(time.Duration(float64(p.samples) / float64(rate) * float64(time.Second)))
	d := time.Until(due)
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return false
	case <-t.C:
		return true
	}
}
