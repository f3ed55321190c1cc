// Package present is the display side of the pipeline: it picks up the newest
// frame without blocking and computes what a chart needs from it. Nothing
// here mutates pipeline state.
package present

import (
	"github.com/chzchzchz/specterm/spectrum"
)

// Bridge hands frames from the transform to a tick-driven display.
type Bridge struct {
	latest *spectrum.Latest
	frames uint64
}

func NewBridge(latest *spectrum.Latest) *Bridge { return &Bridge{latest: latest} }

// TryTakeLatest returns the newest frame published since the last call, or
// false if there is none. It never blocks.
func (b *Bridge) TryTakeLatest() (*spectrum.Frame, bool) {
	f, ok := b.latest.Take()
	if ok {
		b.frames++
	}
	return f, ok
}

// Frames counts frames taken so far.
func (b *Bridge) Frames() uint64 { return b.frames }
