// Package pipeline wires a device reader, a stream buffer, the transform
// worker and the control channel together and tears them down in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/dsp"
	"github.com/chzchzchz/specterm/radio"
	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/stream"
	"github.com/chzchzchz/specterm/tuning"
)

var ErrStopTimeout = errors.New("device read did not stop")

type Config struct {
	Tuning tuning.Config

	// WindowSize is bytes per transform; the transform length is half.
	WindowSize int
	Buffers    int
	ChunkSize  int

	Buffer      stream.Kind
	RingWindows int
	Engine      dsp.Kind
	Window      dsp.Window

	// WaitTimeout bounds the transform's wait for data. It only ends the
	// pipeline once ingestion has also stalled, for at least twice the time
	// a window or chunk takes to arrive at the current sample rate.
	WaitTimeout time.Duration
	// StopTimeout bounds how long shutdown waits for the device read.
	StopTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Tuning:      tuning.DefaultConfig(),
		WindowSize:  32768,
		Buffers:     4,
		ChunkSize:   32768,
		Buffer:      stream.RingKind,
		RingWindows: 4,
		Engine:      dsp.FFTW,
		Window:      dsp.NoWindow,
		WaitTimeout: 2 * time.Second,
		StopTimeout: 2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowSize == 0 {
		c.WindowSize = d.WindowSize
	}
	if c.Buffers == 0 {
		c.Buffers = d.Buffers
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = c.WindowSize
	}
	if c.Buffer == "" {
		c.Buffer = d.Buffer
	}
	if c.RingWindows == 0 {
		c.RingWindows = d.RingWindows
	}
	if c.Engine == "" {
		c.Engine = d.Engine
	}
	if c.Window == "" {
		c.Window = d.Window
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = d.StopTimeout
	}
	return c
}

// Result is what each loop reported when it stopped.
type Result struct {
	Source    stream.Stats `json:"source"`
	Transform stream.Stats `json:"transform"`
}

type Pipeline struct {
	cfg    Config
	log    *zap.Logger
	ctl    *tuning.ControlChannel
	buf    stream.Buffer
	src    *Source
	worker *spectrum.Worker
	engine dsp.Engine
	latest spectrum.Latest

	readyc   chan struct{}
	stopc    chan struct{}
	stopOnce sync.Once
}

// New builds a pipeline around an opened device. The pipeline takes over
// the device: it is configured, read and finally closed by Run.
func New(cfg Config, ctl radio.Controller, r radio.Reader, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if cfg.WindowSize <= 0 || cfg.WindowSize%2 != 0 {
		return nil, fmt.Errorf("window size %d must be positive and even", cfg.WindowSize)
	}
	if cfg.ChunkSize%2 != 0 {
		return nil, fmt.Errorf("chunk size %d must be even", cfg.ChunkSize)
	}
	if cfg.Buffer == stream.RingKind && cfg.ChunkSize > cfg.WindowSize*max(cfg.RingWindows, 2) {
		return nil, fmt.Errorf("chunk size %d exceeds ring capacity", cfg.ChunkSize)
	}
	buf, err := stream.New(cfg.Buffer, cfg.WindowSize, cfg.RingWindows)
	if err != nil {
		return nil, err
	}
	engine, err := dsp.Plan(cfg.Engine, cfg.WindowSize/2)
	if err != nil {
		return nil, err
	}
	t, err := spectrum.NewTransformer(cfg.WindowSize, engine, cfg.Window)
	if err != nil {
		engine.Close()
		return nil, err
	}
	p := &Pipeline{
		cfg:    cfg,
		log:    log,
		ctl:    tuning.NewControlChannel(ctl, log.Named("control")),
		buf:    buf,
		engine: engine,
		readyc: make(chan struct{}),
		stopc:  make(chan struct{}),
	}
	p.src = NewSource(r, buf, p.ctl, log.Named("source"))
	p.worker = spectrum.NewWorker(buf, t, &p.latest, cfg.WaitTimeout, log.Named("transform"))
	p.worker.WatchProgress(func() uint64 { return p.src.Stats().In }, p.patience)
	return p, nil
}

// patience is how long ingestion may deliver nothing before the device is
// considered dead.
func (p *Pipeline) patience() time.Duration {
	rate := p.ctl.State().SampleRate
	if rate == 0 {
		return p.cfg.WaitTimeout
	}
	samples := max(p.cfg.WindowSize, p.cfg.ChunkSize) / 2
	return 2 * time.Duration(samples) * time.Second / time.Duration(rate)
}

func (p *Pipeline) Control() *tuning.ControlChannel { return p.ctl }
func (p *Pipeline) Latest() *spectrum.Latest        { return &p.latest }
func (p *Pipeline) Buffer() stream.Buffer           { return p.buf }
func (p *Pipeline) Config() Config                  { return p.cfg }

// Ready closes once the device is configured and the loops are running.
func (p *Pipeline) Ready() <-chan struct{} { return p.readyc }

// Stats reads the live counters of both loops.
func (p *Pipeline) Stats() Result {
	return Result{Source: p.src.Stats(), Transform: p.worker.Stats()}
}

// Stop is the single stop signal; Run then cancels the device read, lets the
// source close the buffer and the worker drain, and closes the device.
func (p *Pipeline) Stop() { p.stopOnce.Do(func() { close(p.stopc) }) }

// Run configures the device and runs ingestion and transform until ctx ends,
// Stop is called, or either loop quits on its own. Configuration failure is
// returned before any loop starts.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	defer p.engine.Close()
	ctlCtx, ctlCancel := context.WithCancel(context.Background())
	ctlDonec := make(chan struct{})
	go func() {
		defer close(ctlDonec)
		p.ctl.Run(ctlCtx)
	}()
	defer func() {
		ctlCancel()
		<-ctlDonec
	}()

	if err := p.ctl.Configure(p.cfg.Tuning); err != nil {
		p.buf.Close()
		return Result{}, fmt.Errorf("configure device: %w", err)
	}

	var res Result
	var srcErr, workerErr error
	srcDonec, workerDonec := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(srcDonec)
		res.Source, srcErr = p.src.Start(p.cfg.Buffers, p.cfg.ChunkSize)
	}()
	go func() {
		defer close(workerDonec)
		// The worker stops on buffer close, not ctx; it must drain first.
		res.Transform, workerErr = p.worker.Run(context.Background())
	}()
	close(p.readyc)
	p.log.Info("pipeline running",
		zap.Int("window", p.cfg.WindowSize),
		zap.String("buffer", string(p.cfg.Buffer)),
		zap.String("engine", string(p.cfg.Engine)))

	select {
	case <-ctx.Done():
	case <-p.stopc:
	case <-srcDonec:
	case <-workerDonec:
	}

	if err := p.src.Cancel(); err != nil {
		p.log.Warn("cancel read", zap.Error(err))
	}
	srcStopped := true
	select {
	case <-srcDonec:
	case <-time.After(p.cfg.StopTimeout):
		p.log.Error("device read ignored cancel; closing buffer")
		srcStopped = false
		p.buf.Close()
	}
	<-workerDonec
	if !srcStopped {
		// Closing the device is the last way to unblock the read.
		ctlCancel()
		<-ctlDonec
		select {
		case <-srcDonec:
		case <-time.After(p.cfg.StopTimeout):
			return Result{Source: p.src.Stats(), Transform: res.Transform}, ErrStopTimeout
		}
	}
	return res, errors.Join(srcErr, workerErr)
}
