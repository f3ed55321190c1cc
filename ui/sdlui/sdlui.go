// Package sdlui draws the spectrum as a line plot over a scrolling waterfall
// in an SDL window. SDL wants its calls on the thread that initialized it, so
// New, Draw and Close must all run on the main goroutine with the OS thread
// locked.
package sdlui

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/ui"
)

type Renderer struct {
	win    *sdl.Window
	r      *sdl.Renderer
	wf     *waterfall
	w, h   int
	plotH  int
	log    *zap.Logger
	events chan ui.Event
	title  string
	seq    uint64
}

func New(w, h int, log *zap.Logger) (_ *Renderer, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := sdl.Init(sdl.INIT_TIMER | sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			sdl.Quit()
		}
	}()
	win, err := sdl.CreateWindow("specterm",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(w), int32(h), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			win.Destroy()
		}
	}()
	// Disable letterboxing.
	sdl.SetHint(sdl.HINT_RENDER_LOGICAL_SIZE_MODE, "1")
	r, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_TARGETTEXTURE)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()
	info, err := r.GetInfo()
	if err != nil {
		return nil, err
	}
	if (info.Flags & sdl.RENDERER_ACCELERATED) == 0 {
		log.Info("no hw acceleration")
	}
	if err := r.SetLogicalSize(int32(w), int32(h)); err != nil {
		return nil, err
	}
	plotH := h / 2
	wf, err := newWaterfall(r, w, h-plotH)
	if err != nil {
		return nil, err
	}
	sdl.StartTextInput()
	return &Renderer{
		win:    win,
		r:      r,
		wf:     wf,
		w:      w,
		h:      h,
		plotH:  plotH,
		log:    log,
		events: make(chan ui.Event, 64),
	}, nil
}

func (sr *Renderer) Events() <-chan ui.Event { return sr.events }
func (sr *Renderer) Columns() int            { return sr.w }

func (sr *Renderer) poll() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		for _, ev := range translate(event) {
			select {
			case sr.events <- ev:
			default:
				sr.log.Warn("dropped input event")
			}
		}
	}
}

func translate(event sdl.Event) []ui.Event {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		return []ui.Event{{Kind: ui.Quit}}
	case *sdl.TextInputEvent:
		var evs []ui.Event
		for _, r := range ev.GetText() {
			evs = append(evs, ui.Event{Kind: ui.KeyChar, Rune: r})
		}
		return evs
	case *sdl.KeyboardEvent:
		if ev.Type != sdl.KEYDOWN {
			break
		}
		switch ev.Keysym.Sym {
		case sdl.K_RETURN, sdl.K_KP_ENTER:
			return []ui.Event{{Kind: ui.KeyEnter}}
		case sdl.K_ESCAPE:
			return []ui.Event{{Kind: ui.KeyEsc}}
		case sdl.K_BACKSPACE:
			return []ui.Event{{Kind: ui.KeyBackspace}}
		}
	}
	return nil
}

func (sr *Renderer) Draw(v ui.View) error {
	sr.poll()

	title := fmt.Sprintf("%s | %s", v.Title, v.Status)
	if v.Input != "" || v.Err != "" || v.Mode != "normal" {
		title += fmt.Sprintf(" | [%s] %s", v.Mode, v.Input)
	}
	if v.Err != "" {
		title += " error: " + v.Err
	}
	if title != sr.title {
		sr.win.SetTitle(title)
		sr.title = title
	}

	levels := ui.Levels(v, sr.w)
	if v.Seq != sr.seq && levels != nil {
		if err := sr.wf.add(levels); err != nil {
			return err
		}
		sr.seq = v.Seq
	}

	sr.r.SetDrawColor(0, 0, 0, 0xff)
	if err := sr.r.Clear(); err != nil {
		return err
	}
	if err := sr.wf.blit(int32(sr.plotH)); err != nil {
		return err
	}
	// Grid at the low, middle and high dB labels.
	sr.r.SetDrawColor(0x40, 0x40, 0x40, 0xff)
	for _, y := range []int32{0, int32(sr.plotH / 2), int32(sr.plotH - 1)} {
		sr.r.DrawLine(0, y, int32(sr.w), y)
	}
	if levels != nil {
		pts := make([]sdl.Point, len(levels))
		for x, lvl := range levels {
			pts[x] = sdl.Point{X: int32(x), Y: int32(float64(sr.plotH-1) * (1 - lvl))}
		}
		sr.r.SetDrawColor(0, 0xff, 0, 0xff)
		if err := sr.r.DrawLines(pts); err != nil {
			return err
		}
	}
	sr.r.Present()
	return nil
}

func (sr *Renderer) Close() error {
	sdl.StopTextInput()
	sr.wf.destroy()
	sr.r.Destroy()
	sr.win.Destroy()
	sdl.Quit()
	return nil
}
