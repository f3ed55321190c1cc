package termui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/eiannone/keyboard"

	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/tuning"
	"github.com/chzchzchz/specterm/ui"
)

func testView() ui.View {
	s := tuning.DefaultConfig().State
	return ui.View{
		Title:  "specterm",
		Axes:   present.NewAxes(s, present.DefaultDBMin, present.DefaultDBMax),
		Points: []present.Point{{X: 1, Y: -100}, {X: 2, Y: -25}, {X: 3, Y: -50}},
		Help:   "help",
		Mode:   "normal",
		Status: "status",
		Err:    "bad",
	}
}

func TestRenderLayout(t *testing.T) {
	const w, h = 60, 20
	lines := render(testView(), w, h)
	if len(lines) != h {
		t.Fatalf("expected %d lines, got %d", h, len(lines))
	}
	for i, l := range lines {
		if n := utf8.RuneCountInString(l); n > w {
			t.Fatalf("line %d is %d wide: %q", i, n, l)
		}
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "-25.00dB") {
		t.Fatalf("expected top label, got %q", lines[1])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[h-6]), "-75.00dB") {
		t.Fatalf("expected bottom label, got %q", lines[h-6])
	}
	if !strings.Contains(lines[h-4], "98779009.00Hz") {
		t.Fatalf("expected low x label, got %q", lines[h-4])
	}
	if !strings.Contains(lines[h-2], "error: bad") || lines[h-1] != "status" {
		t.Fatalf("unexpected footer %q %q", lines[h-2], lines[h-1])
	}
}

func TestRenderPlotsLevels(t *testing.T) {
	const w, h = 40, 16
	lines := render(testView(), w, h)
	ph := plotHeight(h)
	pw := plotWidth(w)
	plot := lines[1 : 1+ph]
	col := func(i int) int { return labelWidth + i*pw/3 }
	at := func(row, c int) rune { return []rune(plot[row])[c] }
	if at(0, col(1)) != '•' {
		t.Fatalf("expected -25dB at top row, got %q", plot[0])
	}
	if at(ph-1, col(0)) != '•' {
		t.Fatalf("expected floor at bottom row, got %q", plot[ph-1])
	}
	if at(ph-1, col(1)) != '│' {
		t.Fatal("expected bar under peak")
	}
}

func TestRenderTinyTerminal(t *testing.T) {
	lines := render(testView(), 4, 2)
	for i, l := range lines {
		if utf8.RuneCountInString(l) > 4 {
			t.Fatalf("line %d overflows: %q", i, l)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		ch  rune
		key keyboard.Key
		ev  ui.Event
		ok  bool
	}{
		{'f', 0, ui.Event{Kind: ui.KeyChar, Rune: 'f'}, true},
		{0, keyboard.KeyEnter, ui.Event{Kind: ui.KeyEnter}, true},
		{0, keyboard.KeyEsc, ui.Event{Kind: ui.KeyEsc}, true},
		{0, keyboard.KeyBackspace2, ui.Event{Kind: ui.KeyBackspace}, true},
		{0, keyboard.KeyCtrlC, ui.Event{Kind: ui.Quit}, true},
		{0, keyboard.KeyArrowUp, ui.Event{}, false},
	}
	for _, tt := range tests {
		ev, ok := translate(tt.ch, tt.key)
		if ev != tt.ev || ok != tt.ok {
			t.Errorf("translate(%q, %v) = %+v %v, expected %+v %v", tt.ch, tt.key, ev, ok, tt.ev, tt.ok)
		}
	}
}
