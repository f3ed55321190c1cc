package dsp

import (
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

type gonumEngine struct {
	fft *fourier.CmplxFFT
	in  []complex128
	out []complex128
}

func newGonumEngine(n int) *gonumEngine {
	return &gonumEngine{
		fft: fourier.NewCmplxFFT(n),
		in:  make([]complex128, n),
		out: make([]complex128, n),
	}
}

func (e *gonumEngine) Len() int { return len(e.in) }

func (e *gonumEngine) Process(dst, src []complex64) {
	checkLen(e, dst, src)
	widen(e.in, src)
	e.fft.Coefficients(e.out, e.in)
	narrow(dst, e.out)
}

func (e *gonumEngine) Close() {}

// goDSPEngine uses go-dsp's radix-2/Bluestein transform, which allocates its
// output on every call.
type goDSPEngine struct {
	in []complex128
}

func newGoDSPEngine(n int) *goDSPEngine { return &goDSPEngine{in: make([]complex128, n)} }

func (e *goDSPEngine) Len() int { return len(e.in) }

func (e *goDSPEngine) Process(dst, src []complex64) {
	checkLen(e, dst, src)
	widen(e.in, src)
	narrow(dst, fft.FFT(e.in))
}

func (e *goDSPEngine) Close() {}

func widen(dst []complex128, src []complex64) {
	for i, v := range src {
		dst[i] = complex128(v)
	}
}

func narrow(dst []complex64, src []complex128) {
	for i, v := range src {
		dst[i] = complex64(v)
	}
}
