package radio

import (
	"errors"
	"fmt"
	"sync"
)

var errHangup = errors.New("fake device hung up")

// FakeDevice is an in-memory Device for tests. It records every
// configuration call, can fail chosen calls, and replays a fixed list of
// chunks before idling until cancelled.
type FakeDevice struct {
	// Chunks are delivered once, in order.
	Chunks [][]byte
	// Hangup makes ReadAsync return after the last chunk, as if the device vanished.
	Hangup bool

	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	AGC    bool
	PPM    int
	Center uint32
	BW     uint32
	Rate   uint32
	closed bool

	async asyncRead
}

func NewFakeDevice(chunks ...[]byte) *FakeDevice {
	return &FakeDevice{Chunks: chunks, fail: make(map[string]error)}
}

// Fail makes every later call to method return err; a nil err clears it.
func (d *FakeDevice) Fail(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, method)
		return
	}
	d.fail[method] = err
}

// Calls returns the configuration calls seen so far, formatted "Method(arg)".
func (d *FakeDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *FakeDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *FakeDevice) call(method string, arg any, apply func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf("%s(%v)", method, arg))
	if err := d.fail[method]; err != nil {
		return err
	}
	if apply != nil {
		apply()
	}
	return nil
}

func (d *FakeDevice) EnableAGC() error {
	return d.call("EnableAGC", "", func() { d.AGC = true })
}

func (d *FakeDevice) SetPPM(ppm int) error {
	return d.call("SetPPM", ppm, func() { d.PPM = ppm })
}

func (d *FakeDevice) SetCenterFreq(hz uint32) error {
	return d.call("SetCenterFreq", hz, func() { d.Center = hz })
}

func (d *FakeDevice) SetBandwidth(hz uint32) error {
	return d.call("SetBandwidth", hz, func() { d.BW = hz })
}

func (d *FakeDevice) SetSampleRate(hz uint32) error {
	return d.call("SetSampleRate", hz, func() { d.Rate = hz })
}

func (d *FakeDevice) CancelAsyncRead() error {
	d.async.cancel()
	return d.call("CancelAsyncRead", "", nil)
}

func (d *FakeDevice) Close() error {
	d.async.cancel()
	return d.call("Close", "", func() { d.closed = true })
}

func (d *FakeDevice) ReadAsync(nBuffers, bufLen int, cb func([]byte)) error {
	i := 0
	fill := func(done <-chan struct{}, b []byte) error {
		if i >= len(d.Chunks) {
			if d.Hangup {
				return errHangup
			}
			<-done
			return errCancelled
		}
		n := copy(b, d.Chunks[i])
		i++
		for ; n < len(b); n++ {
			b[n] = 127
		}
		return nil
	}
	err := d.async.run(nBuffers, bufLen, fill, cb)
	if err == errHangup {
		return nil
	}
	return err
}
