package dsp

import (
	"github.com/runningwild/go-fftw/fftw32"
)

type fftwEngine struct {
	in   *fftw32.Array
	out  *fftw32.Array
	plan *fftw32.Plan
}

func newFFTWEngine(n int) *fftwEngine {
	in, out := fftw32.NewArray(n), fftw32.NewArray(n)
	return &fftwEngine{
		in:   in,
		out:  out,
		plan: fftw32.NewPlan(in, out, fftw32.Forward, fftw32.Estimate),
	}
}

func (e *fftwEngine) Len() int { return len(e.in.Elems) }

func (e *fftwEngine) Process(dst, src []complex64) {
	checkLen(e, dst, src)
	copy(e.in.Elems, src)
	e.plan.Execute()
	copy(dst, e.out.Elems)
}

func (e *fftwEngine) Close() { e.plan.Destroy() }
