package dsp

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func tone(n, bin int) []complex64 {
	s := make([]complex64, n)
	for i := range s {
		ph := 2 * math.Pi * float64(bin*i) / float64(n)
		s[i] = complex(float32(math.Cos(ph)), float32(math.Sin(ph)))
	}
	return s
}

func TestEnginesFindTone(t *testing.T) {
	for _, kind := range []Kind{FFTW, Gonum, GoDSP} {
		for _, n := range []int{64, 100} {
			e, err := Plan(kind, n)
			if err != nil {
				t.Fatal(err)
			}
			out := make([]complex64, n)
			e.Process(out, tone(n, 5))
			for i, v := range out {
				mag := cmplx.Abs(complex128(v))
				if i == 5 && math.Abs(mag-float64(n)) > 1e-3*float64(n) {
					t.Fatalf("%s/%d: expected |X[5]|=%d, got %g", kind, n, n, mag)
				} else if i != 5 && mag > 1e-3*float64(n) {
					t.Fatalf("%s/%d: expected leakage-free bin %d, got %g", kind, n, i, mag)
				}
			}
			e.Close()
		}
	}
}

func TestEnginesAgree(t *testing.T) {
	n := 256
	src := make([]complex64, n)
	for i := range src {
		src[i] = complex(float32(i%7)-3, float32(i%3)-1)
	}
	ref, err := Plan(Gonum, n)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]complex64, n)
	ref.Process(want, src)
	for _, kind := range []Kind{FFTW, GoDSP} {
		e, err := Plan(kind, n)
		if err != nil {
			t.Fatal(err)
		}
		got := make([]complex64, n)
		e.Process(got, src)
		for i := range got {
			if cmplx.Abs(complex128(got[i]-want[i])) > 1e-2 {
				t.Fatalf("%s: bin %d expected %v, got %v", kind, i, want[i], got[i])
			}
		}
		e.Close()
	}
}

func TestPlanErrors(t *testing.T) {
	if _, err := Plan("dft", 8); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
	if _, err := Plan(Gonum, 0); err != ErrBadLength {
		t.Fatalf("expected ErrBadLength, got %v", err)
	}
	if _, err := ParseKind("gonum"); err != nil {
		t.Fatal(err)
	}
}

func TestProcessWrongLengthPanics(t *testing.T) {
	e, _ := Plan(Gonum, 8)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	e.Process(make([]complex64, 8), make([]complex64, 4))
}

func TestWindows(t *testing.T) {
	if w, err := ParseWindow(""); err != nil || w != NoWindow {
		t.Fatalf("expected default none, got %q %v", w, err)
	}
	if _, err := ParseWindow("kaiser"); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
	if NoWindow.Coefficients(16) != nil {
		t.Fatal("expected no coefficients for none")
	}
	for _, w := range []Window{Hann, Hamming, Blackman} {
		c := w.Coefficients(33)
		if len(c) != 33 {
			t.Fatalf("%s: expected 33 coefficients, got %d", w, len(c))
		}
		if math.Abs(c[16]-1) > 1e-9 || c[0] > c[16] {
			t.Fatalf("%s: expected peak at center, got %g/%g", w, c[0], c[16])
		}
	}
	s := []complex64{1 + 1i, 2 + 2i}
	ApplyWindow(s, []float64{0.5, 0})
	if s[0] != 0.5+0.5i || s[1] != 0 {
		t.Fatalf("unexpected windowed samples %v", s)
	}
}
