package radio

import (
	"math"
	"math/rand"
	"sync/atomic"
)

// Tone is a synthetic carrier at an offset from the tuned center.
type Tone struct {
	OffsetHz  float64
	Amplitude float64
}

// Synth generates tones plus gaussian noise as u8 I/Q, paced at the sample
// rate. It needs no hardware.
type Synth struct {
	Tones []Tone
	Noise float64

	rate  atomic.Uint32
	async asyncRead
	pace  pacer
	rnd   *rand.Rand
	phase []float64
	samps []complex64
}

func NewSynth() *Synth {
	s := &Synth{
		Tones: []Tone{{OffsetHz: 250e3, Amplitude: 0.3}, {OffsetHz: -600e3, Amplitude: 0.05}},
		Noise: 0.01,
		rnd:   rand.New(rand.NewSource(1)),
	}
	s.rate.Store(defaultReplayRate)
	return s
}

func (s *Synth) EnableAGC() error           { return nil }
func (s *Synth) SetPPM(int) error           { return nil }
func (s *Synth) SetCenterFreq(uint32) error { return nil }
func (s *Synth) SetBandwidth(uint32) error  { return nil }

func (s *Synth) SetSampleRate(hz uint32) error {
	if hz == 0 {
		return ErrRateOutOfRange
	}
	s.rate.Store(hz)
	return nil
}

func (s *Synth) ReadAsync(nBuffers, bufLen int, cb func([]byte)) error {
	return s.async.run(nBuffers, bufLen, s.fill, cb)
}

func (s *Synth) fill(done <-chan struct{}, b []byte) error {
	rate := s.rate.Load()
	s.Generate(b, float64(rate))
	if !s.pace.wait(done, len(b)/2, rate) {
		return errCancelled
	}
	return nil
}

// Generate writes len(b)/2 samples at rate into b. Tone phase carries over
// between calls.
func (s *Synth) Generate(b []byte, rate float64) {
	if len(s.phase) != len(s.Tones) {
		s.phase = make([]float64, len(s.Tones))
	}
	n := len(b) / 2
	if cap(s.samps) < n {
		s.samps = make([]complex64, n)
	}
	samps := s.samps[:n]
	for i := range samps {
		re, im := s.rnd.NormFloat64()*s.Noise, s.rnd.NormFloat64()*s.Noise
		for j, t := range s.Tones {
			re += t.Amplitude * math.Cos(s.phase[j])
			im += t.Amplitude * math.Sin(s.phase[j])
			s.phase[j] = math.Mod(s.phase[j]+2*math.Pi*t.OffsetHz/rate, 2*math.Pi)
		}
		samps[i] = complex(float32(re), float32(im))
	}
	EncodeIQ8(b[:2*n], samps)
}

func (s *Synth) CancelAsyncRead() error {
	s.async.cancel()
	return nil
}

func (s *Synth) Close() error {
	s.async.cancel()
	return nil
}
