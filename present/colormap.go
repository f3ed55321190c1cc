package present

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"
)

// black, green, yellow, white
var colorScale = []color.NRGBA{
	{0, 0, 0, 255},
	{0, 255, 0, 255},
	{255, 255, 0, 255},
	{255, 255, 255, 255},
}

func interpolate(t float64, a, b uint8) uint8 { return uint8(float64(a)*(1-t) + float64(b)*t) }

// Level maps db into [0, 1) against the chart's dB window.
func Level(db, dbMin, dbMax float64) float64 {
	v := (db - dbMin) / (dbMax - dbMin)
	switch {
	case !(v >= 0):
		return 0
	case v >= 1:
		return 0.999
	}
	return v
}

// Color picks a waterfall color for a level in [0, 1).
func Color(v float64) color.NRGBA {
	if !(v >= 0) {
		v = 0
	} else if v >= 1 {
		v = 0.999
	}
	idx := float64(len(colorScale)-1) * v
	t := idx - float64(int(idx))
	prev, next := colorScale[int(idx)], colorScale[int(idx)+1]
	return color.NRGBA{
		interpolate(t, prev.R, next.R),
		interpolate(t, prev.G, next.G),
		interpolate(t, prev.B, next.B),
		255,
	}
}

// Spectrogram collects dataset rows into a still waterfall image, oldest row
// on top.
type Spectrogram struct {
	dbMin, dbMax float64
	rows         [][]Point
}

func NewSpectrogram(dbMin, dbMax float64) *Spectrogram {
	return &Spectrogram{dbMin: dbMin, dbMax: dbMax}
}

func (s *Spectrogram) Add(pts []Point) { s.rows = append(s.rows, pts) }
func (s *Spectrogram) Rows() int       { return len(s.rows) }

func (s *Spectrogram) Image() *image.NRGBA {
	w := 0
	for _, row := range s.rows {
		w = max(w, len(row))
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, len(s.rows)))
	for y, row := range s.rows {
		for x, p := range row {
			img.SetNRGBA(x, y, Color(Level(p.Y, s.dbMin, s.dbMax)))
		}
	}
	return img
}

func (s *Spectrogram) WriteJPEG(w io.Writer) error {
	return jpeg.Encode(w, s.Image(), nil)
}
