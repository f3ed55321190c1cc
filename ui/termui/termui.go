// Package termui draws the spectrum chart in a terminal with ANSI escapes.
package termui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/ui"
)

const (
	enterScreen = "\x1b[?1049h\x1b[?25l"
	leaveScreen = "\x1b[?25h\x1b[?1049l"
	home        = "\x1b[H"
	clearEOL    = "\x1b[K"

	labelWidth = 10
	// title, axis line, x labels, help, input and status.
	chromeRows = 6
)

type Renderer struct {
	out    io.Writer
	fd     int
	log    *zap.Logger
	keys   <-chan keyboard.KeyEvent
	events chan ui.Event
	donec  chan struct{}
	cols   int
}

// New puts the terminal in raw mode on the alternate screen. Close restores it.
func New(log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	keys, err := keyboard.GetKeys(16)
	if err != nil {
		return nil, fmt.Errorf("keyboard: %w", err)
	}
	r := &Renderer{
		out:    os.Stdout,
		fd:     int(os.Stdout.Fd()),
		log:    log,
		keys:   keys,
		events: make(chan ui.Event, 16),
		donec:  make(chan struct{}),
	}
	w, _ := r.size()
	r.cols = plotWidth(w)
	io.WriteString(r.out, enterScreen)
	go r.pump()
	return r, nil
}

func (r *Renderer) pump() {
	defer close(r.events)
	for {
		select {
		case kev, ok := <-r.keys:
			if !ok {
				return
			}
			if kev.Err != nil {
				r.log.Warn("keyboard", zap.Error(kev.Err))
				continue
			}
			ev, ok := translate(kev.Rune, kev.Key)
			if !ok {
				continue
			}
			select {
			case r.events <- ev:
			case <-r.donec:
				return
			}
		case <-r.donec:
			return
		}
	}
}

func translate(ch rune, key keyboard.Key) (ui.Event, bool) {
	switch key {
	case keyboard.KeyCtrlC:
		return ui.Event{Kind: ui.Quit}, true
	case keyboard.KeyEnter:
		return ui.Event{Kind: ui.KeyEnter}, true
	case keyboard.KeyEsc:
		return ui.Event{Kind: ui.KeyEsc}, true
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		return ui.Event{Kind: ui.KeyBackspace}, true
	case keyboard.KeySpace:
		return ui.Event{Kind: ui.KeyChar, Rune: ' '}, true
	}
	if ch != 0 {
		return ui.Event{Kind: ui.KeyChar, Rune: ch}, true
	}
	return ui.Event{}, false
}

func (r *Renderer) size() (w, h int) {
	w, h, err := term.GetSize(r.fd)
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

func (r *Renderer) Events() <-chan ui.Event { return r.events }
func (r *Renderer) Columns() int            { return r.cols }

func (r *Renderer) Draw(v ui.View) error {
	w, h := r.size()
	r.cols = plotWidth(w)
	var sb strings.Builder
	sb.WriteString(home)
	for i, line := range render(v, w, h) {
		if i > 0 {
			sb.WriteString("\r\n")
		}
		sb.WriteString(line)
		sb.WriteString(clearEOL)
	}
	_, err := io.WriteString(r.out, sb.String())
	return err
}

func (r *Renderer) Close() error {
	close(r.donec)
	io.WriteString(r.out, leaveScreen)
	return keyboard.Close()
}

func plotWidth(w int) int  { return max(w-labelWidth, 8) }
func plotHeight(h int) int { return max(h-chromeRows, 3) }

// render lays out one screen of w columns and h rows.
func render(v ui.View, w, h int) []string {
	pw, ph := plotWidth(w), plotHeight(h)
	grid := make([][]rune, ph)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", pw))
	}
	for i, p := range v.Points {
		col := i * pw / len(v.Points)
		lvl := present.Level(p.Y, v.Axes.YMin, v.Axes.YMax)
		row := ph - 1 - int(lvl*float64(ph))
		grid[row][col] = '•'
		for y := row + 1; y < ph; y++ {
			if grid[y][col] == ' ' {
				grid[y][col] = '│'
			}
		}
	}

	lines := make([]string, 0, ph+chromeRows)
	lines = append(lines, v.Title)
	for i, row := range grid {
		label := ""
		if len(v.Axes.YLabels) == 3 {
			switch i {
			case 0:
				label = v.Axes.YLabels[2]
			case ph / 2:
				label = v.Axes.YLabels[1]
			case ph - 1:
				label = v.Axes.YLabels[0]
			}
		}
		lines = append(lines, fmt.Sprintf("%*s┤%s", labelWidth-1, label, string(row)))
	}
	lines = append(lines, strings.Repeat(" ", labelWidth-1)+"└"+strings.Repeat("─", pw))
	lines = append(lines, xLabels(v.Axes.XLabels, w))
	lines = append(lines, v.Help)
	input := fmt.Sprintf("[%s] %s", v.Mode, v.Input)
	if v.Err != "" {
		input += "  error: " + v.Err
	}
	lines = append(lines, input, v.Status)
	for i, l := range lines {
		if rs := []rune(l); len(rs) > w {
			lines[i] = string(rs[:w])
		}
	}
	return lines
}

// xLabels puts the low, center and high labels under the plot's left edge,
// middle and right edge.
func xLabels(labels []string, w int) string {
	line := []rune(strings.Repeat(" ", w))
	if len(labels) != 3 {
		return string(line)
	}
	place := func(at int, s string) {
		rs := []rune(s)
		at = min(max(at, 0), max(w-len(rs), 0))
		copy(line[at:], rs)
	}
	pw := plotWidth(w)
	place(labelWidth, labels[0])
	place(labelWidth+pw/2-len(labels[1])/2, labels[1])
	place(w-len(labels[2]), labels[2])
	return string(line)
}
