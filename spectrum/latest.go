package spectrum

import "sync/atomic"

// Latest holds at most one unread frame. Publishing replaces any unread
// frame; readers always get a whole frame.
type Latest struct {
	p atomic.Pointer[Frame]
}

// Publish stores f and reports whether it replaced a frame nobody took.
func (l *Latest) Publish(f *Frame) bool { return l.p.Swap(f) != nil }

// Take returns the newest frame once; later calls report false until the
// next Publish.
func (l *Latest) Take() (*Frame, bool) {
	f := l.p.Swap(nil)
	return f, f != nil
}
