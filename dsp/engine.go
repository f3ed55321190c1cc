// Package dsp plans fixed-length forward transforms over complex samples and
// provides the window functions applied before them.
package dsp

import (
	"errors"
	"fmt"
)

var ErrUnknownEngine = errors.New("unknown transform engine")
var ErrBadLength = errors.New("transform length must be positive")

// Engine executes a forward transform of a length fixed at plan time.
// An Engine is used by one goroutine at a time.
type Engine interface {
	Len() int
	// Process writes the transform of src into dst. Both must have Len() elements.
	Process(dst, src []complex64)
	Close()
}

type Kind string

const (
	FFTW  Kind = "fftw"
	Gonum Kind = "gonum"
	GoDSP Kind = "godsp"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case FFTW, Gonum, GoDSP:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
}

// Plan prepares an engine of kind for transforms of length n.
func Plan(kind Kind, n int) (Engine, error) {
	if n <= 0 {
		return nil, ErrBadLength
	}
	switch kind {
	case FFTW:
		return newFFTWEngine(n), nil
	case Gonum:
		return newGonumEngine(n), nil
	case GoDSP:
		return newGoDSPEngine(n), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
}

func checkLen(e Engine, dst, src []complex64) {
	if len(src) != e.Len() || len(dst) != e.Len() {
		panic(fmt.Sprintf("dsp: transform of %d into %d, planned for %d", len(src), len(dst), e.Len()))
	}
}
