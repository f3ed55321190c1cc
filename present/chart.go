package present

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

const (
	DefaultDBMin = -75.0
	DefaultDBMax = -25.0
)

type Axes struct {
	XMin, XMax float64
	YMin, YMax float64
	XLabels    []string
	YLabels    []string
}

// NewAxes spans the tuned band on X and the fixed dB window on Y.
func NewAxes(s tuning.State, dbMin, dbMax float64) Axes {
	band := s.Band()
	a := Axes{XMin: band.BeginHz(), XMax: band.EndHz(), YMin: dbMin, YMax: dbMax}
	for _, x := range []float64{a.XMin, (a.XMin + a.XMax) / 2, a.XMax} {
		a.XLabels = append(a.XLabels, fmt.Sprintf("%.2fHz", x))
	}
	for _, y := range []float64{a.YMin, (a.YMin + a.YMax) / 2, a.YMax} {
		a.YLabels = append(a.YLabels, fmt.Sprintf("%.2fdB", y))
	}
	return a
}

type Point struct {
	X float64 `json:"hz"`
	Y float64 `json:"db"`
}

// binOffset maps engine bin i of n to a signed offset so that bins past the
// midpoint are negative frequencies.
func binOffset(i, n int) int {
	if i < (n+1)/2 {
		return i
	}
	return i - n
}

// Dataset places each bin at its absolute frequency, lowest first.
func Dataset(f *spectrum.Frame, s tuning.State) []Point {
	n := len(f.Bins)
	if n == 0 {
		return nil
	}
	hzPerBin := float64(s.SampleRate) / float64(n)
	pts := make([]Point, n)
	shift := (n + 1) / 2
	for j := range pts {
		b := f.Bins[(j+shift)%n]
		pts[j] = Point{
			X: float64(s.CenterFrequency) + float64(binOffset(b.Index, n))*hzPerBin,
			Y: b.DB,
		}
	}
	return pts
}

// Decimate reduces pts to at most width points, keeping the strongest level
// in each column so narrow carriers stay visible.
func Decimate(pts []Point, width int) []Point {
	if width <= 0 || len(pts) <= width {
		return pts
	}
	out := make([]Point, width)
	ys := make([]float64, 0, len(pts)/width+1)
	for c := range out {
		lo, hi := c*len(pts)/width, (c+1)*len(pts)/width
		ys = ys[:0]
		for _, p := range pts[lo:hi] {
			ys = append(ys, p.Y)
		}
		out[c] = Point{X: pts[(lo+hi)/2].X, Y: floats.Max(ys)}
	}
	return out
}

// Peak returns the frequency and level of the strongest point.
func Peak(pts []Point) (hz, db float64) {
	if len(pts) == 0 {
		return 0, spectrum.FloorDB
	}
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ys[i] = p.Y
	}
	i := floats.MaxIdx(ys)
	return pts[i].X, pts[i].Y
}
