package stream

import "sync/atomic"

// Stats is a snapshot of a pipeline stage's counters.
type Stats struct {
	In      uint64 `json:"in"`
	Out     uint64 `json:"out"`
	Dropped uint64 `json:"dropped"`
}

// WorkerStats counts items entering and leaving a stage. Counters only grow
// and are safe to read from any goroutine.
type WorkerStats struct {
	In      atomic.Uint64
	Out     atomic.Uint64
	Dropped atomic.Uint64
}

func (s *WorkerStats) Snapshot() Stats {
	return Stats{In: s.In.Load(), Out: s.Out.Load(), Dropped: s.Dropped.Load()}
}
