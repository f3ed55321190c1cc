package dsp

import (
	"errors"
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

var ErrUnknownWindow = errors.New("unknown window function")

// Window names a taper applied to samples before the transform.
type Window string

const (
	NoWindow Window = "none"
	Hann     Window = "hann"
	Hamming  Window = "hamming"
	Blackman Window = "blackman"
)

func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case "":
		return NoWindow, nil
	case NoWindow, Hann, Hamming, Blackman:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Coefficients returns n taper weights, or nil for NoWindow.
func (w Window) Coefficients(n int) []float64 {
	switch w {
	case Hann:
		return window.Hann(n)
	case Hamming:
		return window.Hamming(n)
	case Blackman:
		return window.Blackman(n)
	}
	return nil
}

// ApplyWindow scales samps in place; nil coefficients leave it untouched.
func ApplyWindow(samps []complex64, coef []float64) {
	if coef == nil {
		return
	}
	for i := range samps {
		c := float32(coef[i])
		samps[i] = complex(real(samps[i])*c, imag(samps[i])*c)
	}
}
