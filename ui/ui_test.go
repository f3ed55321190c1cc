package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/radio"
	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

type fakeRenderer struct {
	mu     sync.Mutex
	views  []View
	events chan Event
	cols   int
}

func newFakeRenderer(evs ...Event) *fakeRenderer {
	r := &fakeRenderer{events: make(chan Event, len(evs)+1), cols: 8}
	for _, ev := range evs {
		r.events <- ev
	}
	return r
}

func (r *fakeRenderer) Draw(v View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	return nil
}

func (r *fakeRenderer) Events() <-chan Event { return r.events }
func (r *fakeRenderer) Close() error         { return nil }
func (r *fakeRenderer) Columns() int         { return r.cols }

func (r *fakeRenderer) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

type fakeSource struct {
	latest spectrum.Latest
	ctl    *tuning.ControlChannel
}

func (s *fakeSource) Latest() *spectrum.Latest        { return &s.latest }
func (s *fakeSource) Control() *tuning.ControlChannel { return s.ctl }
func (s *fakeSource) Stats() pipeline.Result          { return pipeline.Result{} }

func newSource(t *testing.T) *fakeSource {
	dev := radio.NewFakeDevice()
	ctl := tuning.NewControlChannel(dev, nil)
	ctx, cancel := context.WithCancel(context.TODO())
	t.Cleanup(cancel)
	go ctl.Run(ctx)
	if err := ctl.Configure(tuning.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	return &fakeSource{ctl: ctl}
}

func keys(s string) (evs []Event) {
	for _, r := range s {
		evs = append(evs, Event{Kind: KeyChar, Rune: r})
	}
	return evs
}

func runApp(t *testing.T, r Renderer, src Source) {
	errc := make(chan error, 1)
	go func() { errc <- NewApp(r, src, DefaultConfig(), nil).Run(context.TODO()) }()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("app did not quit")
	}
}

func TestEditCommitsThenQuits(t *testing.T) {
	src := newSource(t)
	evs := append(keys("f12345"), Event{Kind: KeyEnter})
	evs = append(evs, keys("q")...)
	r := newFakeRenderer(evs...)
	runApp(t, r, src)
	if hz := src.ctl.State().CenterFrequency; hz != 12345 {
		t.Fatalf("expected center 12345, got %d", hz)
	}
	if v := r.last(); v.Mode != tuning.Normal.String() || v.Err != "" {
		t.Fatalf("unexpected final view %+v", v)
	}
}

func TestQuitIgnoredWhileEditing(t *testing.T) {
	src := newSource(t)
	r := newFakeRenderer(keys("sq")...)
	errc := make(chan error, 1)
	go func() { errc <- NewApp(r, src, DefaultConfig(), nil).Run(context.TODO()) }()
	time.Sleep(100 * time.Millisecond)
	select {
	case <-errc:
		t.Fatal("q quit while editing")
	default:
	}
	r.events <- Event{Kind: KeyEsc}
	r.events <- Event{Kind: KeyChar, Rune: 'q'}
	select {
	case <-errc:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not quit")
	}
	if src.ctl.State().SampleRate != tuning.DefaultConfig().SampleRate {
		t.Fatal("escaped edit changed state")
	}
}

func TestBadEditShowsError(t *testing.T) {
	src := newSource(t)
	evs := append(keys("babc"), Event{Kind: KeyEnter})
	r := newFakeRenderer(evs...)
	app := NewApp(r, src, DefaultConfig(), nil)
	for _, ev := range evs {
		app.handle(ev)
	}
	v := app.view()
	if !strings.Contains(v.Err, tuning.ErrBadNumber.Error()) {
		t.Fatalf("expected bad number error, got %q", v.Err)
	}
	if v.Help != normalHelp {
		t.Fatalf("expected normal help, got %q", v.Help)
	}
}

func TestTickPicksUpFrame(t *testing.T) {
	src := newSource(t)
	r := newFakeRenderer()
	app := NewApp(r, src, DefaultConfig(), nil)
	if v := app.view(); v.Points != nil {
		t.Fatal("expected no points before first frame")
	}
	f := &spectrum.Frame{Seq: 7}
	for i := 0; i < 32; i++ {
		f.Bins = append(f.Bins, spectrum.Bin{Index: i, DB: -100})
	}
	f.Bins[3].DB = -30
	src.latest.Publish(f)
	app.handle(Event{Kind: Tick})
	v := app.view()
	if v.Seq != 7 || len(v.Points) != r.cols {
		t.Fatalf("expected 8 decimated points from frame 7, got seq %d len %d", v.Seq, len(v.Points))
	}
	if !strings.Contains(v.Status, "peak") || !strings.Contains(v.Status, "-30.0dB") {
		t.Fatalf("expected peak in status, got %q", v.Status)
	}
	app.handle(Event{Kind: Tick})
	if v := app.view(); v.Seq != 7 {
		t.Fatal("lost frame on empty tick")
	}
}

func TestClosedEventsEndsRun(t *testing.T) {
	src := newSource(t)
	r := newFakeRenderer()
	close(r.events)
	runApp(t, r, src)
}

func TestLevels(t *testing.T) {
	v := View{
		Axes:   present.NewAxes(tuning.DefaultConfig().State, -75, -25),
		Points: []present.Point{{Y: -75}, {Y: -50}},
	}
	lv := Levels(v, 4)
	expected := []float64{0, 0, 0.5, 0.5}
	for i := range expected {
		if lv[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, lv)
		}
	}
	if Levels(View{}, 4) != nil {
		t.Fatal("expected no levels without points")
	}
}
