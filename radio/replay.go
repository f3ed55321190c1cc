package radio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/radio/wav"
)

const defaultReplayRate = 2560000

// replaySDR plays back a u8 I/Q capture at the configured sample rate,
// rewinding at end of file. Only the sample rate, which sets the pace,
// takes effect.
type replaySDR struct {
	f         io.ReadSeekCloser
	dataStart int64
	rate      atomic.Uint32
	log       *zap.Logger

	async asyncRead
	pace  pacer
}

func openFile(path string, log *zap.Logger) (*replaySDR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return newReplay(f, strings.EqualFold(filepath.Ext(path), ".wav"), log)
}

func newReplay(f io.ReadSeekCloser, isWav bool, log *zap.Logger) (*replaySDR, error) {
	r := &replaySDR{f: f, log: log}
	r.rate.Store(defaultReplayRate)
	if !isWav {
		return r, nil
	}
	wr, err := wav.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if !wr.IsIQ8() {
		f.Close()
		return nil, fmt.Errorf("%w: want 2x8-bit, got %dx%d-bit",
			wav.ErrBadFormat, wr.Channels(), wr.BitDepth())
	}
	if r.dataStart, err = f.Seek(0, io.SeekCurrent); err != nil {
		f.Close()
		return nil, err
	}
	r.rate.Store(uint32(wr.SampleRate()))
	log.Info("replaying wav", zap.Int("rate", wr.SampleRate()))
	return r, nil
}

func (r *replaySDR) EnableAGC() error           { return nil }
func (r *replaySDR) SetPPM(int) error           { return nil }
func (r *replaySDR) SetCenterFreq(uint32) error { return nil }
func (r *replaySDR) SetBandwidth(uint32) error  { return nil }

func (r *replaySDR) SetSampleRate(hz uint32) error {
	if hz == 0 {
		return ErrRateOutOfRange
	}
	r.rate.Store(hz)
	return nil
}

func (r *replaySDR) ReadAsync(nBuffers, bufLen int, cb func([]byte)) error {
	return r.async.run(nBuffers, bufLen, r.fill, cb)
}

func (r *replaySDR) fill(done <-chan struct{}, b []byte) error {
	for n := 0; n < len(b); {
		m, err := r.f.Read(b[n:])
		n += m
		if err == io.EOF {
			if n == 0 && r.atStart() {
				return io.ErrUnexpectedEOF
			}
			r.log.Debug("rewinding")
			if _, err := r.f.Seek(r.dataStart, io.SeekStart); err != nil {
				return err
			}
			continue
		} else if err != nil {
			return err
		}
	}
	if !r.pace.wait(done, len(b)/2, r.rate.Load()) {
		return errCancelled
	}
	return nil
}

// atStart reports whether the file has no sample data at all.
func (r *replaySDR) atStart() bool {
	off, err := r.f.Seek(0, io.SeekCurrent)
	return err == nil && off == r.dataStart
}

func (r *replaySDR) CancelAsyncRead() error {
	r.async.cancel()
	return nil
}

func (r *replaySDR) Close() error {
	r.async.cancel()
	return r.f.Close()
}
