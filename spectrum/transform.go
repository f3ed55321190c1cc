// Package spectrum turns windows of raw u8 I/Q into decibel frames and hands
// the newest frame to whoever displays it.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/chzchzchz/specterm/dsp"
	"github.com/chzchzchz/specterm/radio"
)

// FloorDB is the lowest level a bin reports. Silent, zero and non-finite
// bins all land here.
const FloorDB = -140.0

var ErrBadWindow = errors.New("window size must be positive, even, and match the engine")

type Bin struct {
	Index int     `json:"index"`
	DB    float64 `json:"db"`
}

// Frame is one transform's output, bins in engine order (DC first). It is
// not modified after publication.
type Frame struct {
	Seq  uint64
	Bins []Bin
}

// Transformer converts windowSize raw bytes into windowSize/2 bins.
type Transformer struct {
	windowSize int
	engine     dsp.Engine
	coef       []float64
	in         []complex64
	out        []complex64
}

func NewTransformer(windowSize int, e dsp.Engine, w dsp.Window) (*Transformer, error) {
	if windowSize <= 0 || windowSize%2 != 0 || e.Len() != windowSize/2 {
		return nil, fmt.Errorf("%w: %d bytes for engine of %d", ErrBadWindow, windowSize, e.Len())
	}
	n := windowSize / 2
	return &Transformer{
		windowSize: windowSize,
		engine:     e,
		coef:       w.Coefficients(n),
		in:         make([]complex64, n),
		out:        make([]complex64, n),
	}, nil
}

func (t *Transformer) WindowSize() int { return t.windowSize }

// Bins is the number of bins per frame.
func (t *Transformer) Bins() int { return t.windowSize / 2 }

// Transform panics unless len(raw) is exactly the window size.
func (t *Transformer) Transform(raw []byte) []Bin {
	if len(raw) != t.windowSize {
		panic(fmt.Sprintf("spectrum: transform of %d bytes, window is %d", len(raw), t.windowSize))
	}
	radio.DecodeIQ8(t.in, raw)
	dsp.ApplyWindow(t.in, t.coef)
	t.engine.Process(t.out, t.in)
	n := len(t.out)
	bins := make([]Bin, n)
	for i, c := range t.out {
		bins[i] = Bin{Index: i, DB: ToDB(c, n)}
	}
	return bins
}

// ToDB is 20*log10(|c|/n), floored at FloorDB.
func ToDB(c complex64, n int) float64 {
	mag := cmplx.Abs(complex128(c)) / float64(n)
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return FloorDB
	}
	db := 20 * math.Log10(mag)
	if db < FloorDB || math.IsNaN(db) {
		return FloorDB
	}
	return db
}
