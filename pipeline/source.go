package pipeline

import (
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/radio"
	"github.com/chzchzchz/specterm/stream"
)

// Canceler stops a device's async read on behalf of the ingestion loop.
type Canceler interface {
	CancelRead() error
}

// Source is the ingestion loop. It only reads from the device; stopping the
// read goes through the Canceler so configuration stays with one owner.
type Source struct {
	r      radio.Reader
	buf    stream.Buffer
	cancel Canceler
	log    *zap.Logger
	stats  stream.WorkerStats
}

func NewSource(r radio.Reader, buf stream.Buffer, cancel Canceler, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{r: r, buf: buf, cancel: cancel, log: log}
}

// Start reads until the device read returns, offering each chunk to the
// buffer. A refused offer is counted as dropped and the loop carries on.
// The buffer is closed on return.
func (s *Source) Start(nBuffers, chunkSize int) (stream.Stats, error) {
	defer s.buf.Close()
	err := s.r.ReadAsync(nBuffers, chunkSize, s.offer)
	st := s.stats.Snapshot()
	if err != nil {
		s.log.Error("device read failed", zap.Error(err))
	}
	s.log.Info("ingestion stopped",
		zap.Uint64("in", st.In),
		zap.Uint64("out", st.Out),
		zap.Uint64("dropped", st.Dropped))
	return st, err
}

func (s *Source) offer(chunk []byte) {
	s.stats.In.Add(1)
	if err := s.buf.Offer(chunk); err != nil {
		s.stats.Dropped.Add(1)
		s.log.Debug("chunk dropped", zap.Int("len", len(chunk)), zap.Error(err))
		return
	}
	s.stats.Out.Add(1)
}

// Cancel asks the device to end the read Start is blocked in.
func (s *Source) Cancel() error { return s.cancel.CancelRead() }

func (s *Source) Stats() stream.Stats { return s.stats.Snapshot() }
