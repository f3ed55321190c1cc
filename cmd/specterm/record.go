package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/radio"
	"github.com/chzchzchz/specterm/radio/wav"
	"github.com/chzchzchz/specterm/tuning"
)

var flagRecordFor time.Duration

// iqSink wraps the output file, adding a wav header when the name asks for one.
type iqSink struct {
	f   *os.File
	w   io.Writer
	wav *wav.Writer
	n   int64
}

func createSink(path string, rate uint32) (*iqSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &iqSink{f: f, w: f}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if s.wav, err = wav.NewIQ8Writer(f, int(rate)); err != nil {
			f.Close()
			return nil, err
		}
		s.w = s.wav
	}
	return s, nil
}

func (s *iqSink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.n += int64(n)
	return n, err
}

func (s *iqSink) Close() error {
	if s.wav != nil {
		if err := s.wav.Close(); err != nil {
			s.f.Close()
			return err
		}
	}
	return s.f.Close()
}

func record(cmd *cobra.Command, path string) error {
	log, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	dev, rd, err := radio.Open(ctx, flagDevice, log.Named("radio"))
	if err != nil {
		return fmt.Errorf("open %s: %w", flagDevice, err)
	}
	ctl := tuning.NewControlChannel(dev, log.Named("control"))
	cctx, ccancel := context.WithCancel(context.Background())
	ctlDonec := make(chan struct{})
	go func() {
		defer close(ctlDonec)
		ctl.Run(cctx)
	}()
	defer func() {
		ccancel()
		<-ctlDonec
	}()
	if err := ctl.Configure(cfg.Tuning); err != nil {
		return err
	}

	sink, err := createSink(path, cfg.Tuning.SampleRate)
	if err != nil {
		return err
	}
	var (
		cancelOnce sync.Once
		werr       error
	)
	cancel := func() {
		cancelOnce.Do(func() {
			if err := ctl.CancelRead(); err != nil {
				log.Warn("cancel read", zap.Error(err))
			}
		})
	}
	readDonec := make(chan struct{})
	go func() {
		var timeout <-chan time.Time
		if flagRecordFor > 0 {
			timeout = time.After(flagRecordFor)
		}
		select {
		case <-ctx.Done():
		case <-timeout:
		case <-readDonec:
			return
		}
		cancel()
	}()
	log.Info("recording", zap.String("path", path), zap.Duration("duration", flagRecordFor))
	rerr := rd.ReadAsync(cfg.Buffers, cfg.ChunkSize, func(b []byte) {
		if werr != nil {
			return
		}
		if _, werr = sink.Write(b); werr != nil {
			go cancel()
		}
	})
	close(readDonec)
	cerr := sink.Close()
	log.Info("recorded", zap.String("path", path), zap.Int64("bytes", sink.n))
	switch {
	case rerr != nil:
		return rerr
	case werr != nil:
		return werr
	}
	return cerr
}
