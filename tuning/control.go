// Package tuning owns the receiver's configuration. Every setter call goes
// through one goroutine so tuning writes never race each other or the reader.
package tuning

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/radio"
)

var ErrZeroValue = errors.New("tuning value must be non-zero")
var ErrStopped = errors.New("control channel stopped")

// State is the receiver's current tuning in Hz.
type State struct {
	CenterFrequency uint32 `json:"center_hz"`
	SampleRate      uint32 `json:"sample_rate"`
	Bandwidth       uint32 `json:"bandwidth_hz"`
}

// Band is the span the current sample rate covers around the center.
func (s State) Band() radio.HzBand {
	return radio.HzBand{Center: uint64(s.CenterFrequency), Width: uint64(s.SampleRate)}
}

// Config is the initial device setup.
type Config struct {
	AGC bool
	PPM int
	State
}

// DefaultConfig tunes 200kHz below a 100.259009MHz broadcast station so its
// carrier sits off the DC spike.
func DefaultConfig() Config {
	return Config{
		AGC: true,
		PPM: -2,
		State: State{
			CenterFrequency: 100059009,
			SampleRate:      2560000,
			Bandwidth:       200000,
		},
	}
}

type Field int

const (
	CenterFrequency Field = iota
	Bandwidth
	SampleRate
)

func (f Field) String() string {
	switch f {
	case CenterFrequency:
		return "center frequency"
	case Bandwidth:
		return "bandwidth"
	case SampleRate:
		return "sample rate"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

type command struct {
	fn   func() error
	errc chan error
}

// ControlChannel serializes all access to a radio.Controller. It owns the
// controller and closes it when Run returns.
type ControlChannel struct {
	dev   radio.Controller
	log   *zap.Logger
	cmdc  chan command
	donec chan struct{}

	mu    sync.RWMutex
	state State
}

func NewControlChannel(dev radio.Controller, log *zap.Logger) *ControlChannel {
	if log == nil {
		log = zap.NewNop()
	}
	return &ControlChannel{
		dev:   dev,
		log:   log,
		cmdc:  make(chan command),
		donec: make(chan struct{}),
	}
}

// Run executes commands until ctx ends, then closes the device.
func (c *ControlChannel) Run(ctx context.Context) {
	defer func() {
		close(c.donec)
		if err := c.dev.Close(); err != nil {
			c.log.Warn("close device", zap.Error(err))
		}
	}()
	for {
		select {
		case cmd := <-c.cmdc:
			cmd.errc <- cmd.fn()
		case <-ctx.Done():
			return
		}
	}
}

func (c *ControlChannel) do(fn func() error) error {
	cmd := command{fn: fn, errc: make(chan error, 1)}
	select {
	case c.cmdc <- cmd:
	case <-c.donec:
		return ErrStopped
	}
	return <-cmd.errc
}

// Configure applies the startup settings: AGC, ppm, center, bandwidth and
// sample rate, in that order.
func (c *ControlChannel) Configure(cfg Config) error {
	return c.do(func() error {
		if cfg.AGC {
			if err := c.dev.EnableAGC(); err != nil {
				return fmt.Errorf("enable agc: %w", err)
			}
		}
		if err := c.dev.SetPPM(cfg.PPM); err != nil {
			return fmt.Errorf("set ppm %d: %w", cfg.PPM, err)
		}
		if err := c.dev.SetCenterFreq(cfg.CenterFrequency); err != nil {
			return fmt.Errorf("set center %d: %w", cfg.CenterFrequency, err)
		}
		if err := c.dev.SetBandwidth(cfg.Bandwidth); err != nil {
			return fmt.Errorf("set bandwidth %d: %w", cfg.Bandwidth, err)
		}
		if err := c.dev.SetSampleRate(cfg.SampleRate); err != nil {
			return fmt.Errorf("set sample rate %d: %w", cfg.SampleRate, err)
		}
		c.mu.Lock()
		c.state = cfg.State
		c.mu.Unlock()
		c.log.Info("configured",
			zap.Bool("agc", cfg.AGC),
			zap.Int("ppm", cfg.PPM),
			zap.Uint32("center_hz", cfg.CenterFrequency),
			zap.Uint32("bandwidth_hz", cfg.Bandwidth),
			zap.Uint32("sample_rate", cfg.SampleRate))
		return nil
	})
}

// Apply writes one field to the device; State changes only if the device
// accepts it.
func (c *ControlChannel) Apply(f Field, hz uint32) error {
	if hz == 0 {
		return fmt.Errorf("%s: %w", f, ErrZeroValue)
	}
	return c.do(func() error {
		var err error
		switch f {
		case CenterFrequency:
			err = c.dev.SetCenterFreq(hz)
		case Bandwidth:
			err = c.dev.SetBandwidth(hz)
		case SampleRate:
			err = c.dev.SetSampleRate(hz)
		default:
			panic(fmt.Sprintf("tuning: bad field %d", int(f)))
		}
		if err != nil {
			c.log.Warn("retune rejected", zap.Stringer("field", f), zap.Uint32("hz", hz), zap.Error(err))
			return fmt.Errorf("set %s %d: %w", f, hz, err)
		}
		c.mu.Lock()
		switch f {
		case CenterFrequency:
			c.state.CenterFrequency = hz
		case Bandwidth:
			c.state.Bandwidth = hz
		case SampleRate:
			c.state.SampleRate = hz
		}
		c.mu.Unlock()
		c.log.Info("retuned", zap.Stringer("field", f), zap.Uint32("hz", hz))
		return nil
	})
}

func (c *ControlChannel) SetCenterFrequency(hz uint32) error { return c.Apply(CenterFrequency, hz) }
func (c *ControlChannel) SetBandwidth(hz uint32) error       { return c.Apply(Bandwidth, hz) }
func (c *ControlChannel) SetSampleRate(hz uint32) error      { return c.Apply(SampleRate, hz) }

// CancelRead asks the device to stop its async read.
func (c *ControlChannel) CancelRead() error {
	return c.do(c.dev.CancelAsyncRead)
}

func (c *ControlChannel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
