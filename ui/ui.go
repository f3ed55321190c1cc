// Package ui runs the interactive display loop over a pluggable Renderer.
package ui

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

type EventKind int

const (
	KeyChar EventKind = iota
	KeyEnter
	KeyEsc
	KeyBackspace
	Tick
	Quit
)

type Event struct {
	Kind EventKind
	Rune rune
}

// View is everything a renderer draws for one frame.
type View struct {
	Title  string
	Seq    uint64 // frame sequence; unchanged means no new spectrum
	Points []present.Point
	Axes   present.Axes
	Help   string
	Mode   string
	Input  string
	Status string
	Err    string
}

// Renderer draws views and reports input. Draw and Close are called from the
// goroutine running App.Run.
type Renderer interface {
	Draw(v View) error
	Events() <-chan Event
	Close() error
}

// Sizer is implemented by renderers that know how many columns they plot.
type Sizer interface {
	Columns() int
}

// Source is the running pipeline as the display sees it.
type Source interface {
	Latest() *spectrum.Latest
	Control() *tuning.ControlChannel
	Stats() pipeline.Result
}

type Config struct {
	FPS   int
	DBMin float64
	DBMax float64
}

func DefaultConfig() Config {
	return Config{FPS: 30, DBMin: present.DefaultDBMin, DBMax: present.DefaultDBMax}
}

const (
	normalHelp = "f: center frequency  s: sample rate  b: bandwidth  q: quit"
	editHelp   = "type Hz, Enter: apply  Esc: cancel  Backspace: delete"
)

// App is the presentation loop: redraw on every tick, pick up the newest
// frame if there is one, and feed keys to the tuning editor.
type App struct {
	r      Renderer
	src    Source
	cfg    Config
	log    *zap.Logger
	bridge *present.Bridge
	editor *tuning.Editor
	last   *spectrum.Frame
}

func NewApp(r Renderer, src Source, cfg Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	if cfg.DBMin >= cfg.DBMax {
		cfg.DBMin, cfg.DBMax = present.DefaultDBMin, present.DefaultDBMax
	}
	return &App{
		r:      r,
		src:    src,
		cfg:    cfg,
		log:    log,
		bridge: present.NewBridge(src.Latest()),
		editor: tuning.NewEditor(src.Control()),
	}
}

// Run returns when the user quits, the renderer's event stream ends, or ctx
// is done.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.FPS))
	defer ticker.Stop()
	if err := a.r.Draw(a.view()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-a.r.Events():
			if !ok || a.handle(ev) {
				a.log.Info("quit", zap.Uint64("frames", a.bridge.Frames()))
				return nil
			}
		case <-ticker.C:
			a.tick()
		}
		if err := a.r.Draw(a.view()); err != nil {
			return err
		}
	}
}

func (a *App) tick() {
	if f, ok := a.bridge.TryTakeLatest(); ok {
		a.last = f
	}
}

// handle applies one input event and reports whether to quit.
func (a *App) handle(ev Event) bool {
	switch ev.Kind {
	case KeyChar:
		return a.editor.Rune(ev.Rune)
	case KeyEnter:
		if err := a.editor.Enter(); err != nil {
			a.log.Warn("edit rejected", zap.Error(err))
		}
	case KeyEsc:
		a.editor.Escape()
	case KeyBackspace:
		a.editor.Backspace()
	case Tick:
		a.tick()
	case Quit:
		return true
	}
	return false
}

func (a *App) view() View {
	state := a.src.Control().State()
	st := a.src.Stats()
	v := View{
		Title: fmt.Sprintf("specterm %s", state.Band()),
		Axes:  present.NewAxes(state, a.cfg.DBMin, a.cfg.DBMax),
		Help:  normalHelp,
		Mode:  a.editor.Mode().String(),
		Input: a.editor.Input(),
		Status: fmt.Sprintf("center %dHz  rate %dHz  bw %dHz | frames %d | in %d out %d dropped %d",
			state.CenterFrequency, state.SampleRate, state.Bandwidth,
			a.bridge.Frames(), st.Source.In, st.Source.Out, st.Source.Dropped),
	}
	if a.editor.Mode() != tuning.Normal {
		v.Help = editHelp
	}
	if err := a.editor.Err(); err != nil {
		v.Err = err.Error()
	}
	if a.last != nil {
		v.Seq = a.last.Seq
		pts := present.Dataset(a.last, state)
		hz, db := present.Peak(pts)
		if s, ok := a.r.(Sizer); ok {
			pts = present.Decimate(pts, s.Columns())
		}
		v.Points = pts
		v.Status += fmt.Sprintf(" | peak %.6fMHz %.1fdB", hz/1e6, db)
	}
	return v
}

// Levels resamples the view's points to n columns as chart levels in [0, 1).
func Levels(v View, n int) []float64 {
	if len(v.Points) == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for c := range out {
		p := v.Points[c*len(v.Points)/n]
		out[c] = present.Level(p.Y, v.Axes.YMin, v.Axes.YMax)
	}
	return out
}
