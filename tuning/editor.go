package tuning

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrBadNumber = errors.New("not an unsigned 32-bit number")

type Mode int

const (
	Normal Mode = iota
	EditingCenterFrequency
	EditingBandwidth
	EditingSampleRate
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case EditingCenterFrequency:
		return "editing center frequency"
	case EditingBandwidth:
		return "editing bandwidth"
	case EditingSampleRate:
		return "editing sample rate"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) field() Field {
	switch m {
	case EditingBandwidth:
		return Bandwidth
	case EditingSampleRate:
		return SampleRate
	}
	return CenterFrequency
}

// Applier takes a committed edit; *ControlChannel is one.
type Applier interface {
	Apply(f Field, hz uint32) error
}

// Editor is the keyboard retuning state machine. In Normal, f, s and b start
// editing center frequency, sample rate and bandwidth, and q quits. While
// editing, characters collect until Enter commits or Esc cancels. A rejected
// edit, bad text or a device refusal, returns to Normal with the buffer
// cleared and the error kept in Err.
type Editor struct {
	ctl  Applier
	mode Mode
	buf  []rune
	err  error
}

func NewEditor(ctl Applier) *Editor { return &Editor{ctl: ctl} }

func (e *Editor) Mode() Mode        { return e.mode }
func (e *Editor) Input() string     { return string(e.buf) }
func (e *Editor) Err() error        { return e.err }
func (e *Editor) QuitEnabled() bool { return e.mode == Normal }

// Rune handles a character key and reports whether the user asked to quit.
func (e *Editor) Rune(r rune) (quit bool) {
	if e.mode != Normal {
		e.buf = append(e.buf, r)
		return false
	}
	switch r {
	case 'f':
		e.begin(EditingCenterFrequency)
	case 's':
		e.begin(EditingSampleRate)
	case 'b':
		e.begin(EditingBandwidth)
	case 'q':
		return true
	}
	return false
}

func (e *Editor) begin(m Mode) {
	e.mode, e.buf, e.err = m, nil, nil
}

// Enter commits the pending edit. It is a no-op in Normal.
func (e *Editor) Enter() error {
	if e.mode == Normal {
		return nil
	}
	f, text := e.mode.field(), string(e.buf)
	e.mode, e.buf = Normal, nil
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		e.err = fmt.Errorf("%s %q: %w", f, text, ErrBadNumber)
		return e.err
	}
	e.err = e.ctl.Apply(f, uint32(v))
	return e.err
}

// Escape abandons the pending edit.
func (e *Editor) Escape() {
	e.mode, e.buf = Normal, nil
}

func (e *Editor) Backspace() {
	if len(e.buf) > 0 {
		e.buf = e.buf[:len(e.buf)-1]
	}
}
