package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/dsp"
	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/radio"
	"github.com/chzchzchz/specterm/stream"
	"github.com/chzchzchz/specterm/tuning"
	"github.com/chzchzchz/specterm/ui"
)

func pipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.Tuning = tuning.Config{
		AGC: flagAGC,
		PPM: flagPPM,
		State: tuning.State{
			CenterFrequency: flagCenterHz,
			SampleRate:      flagSampleRate,
			Bandwidth:       flagBandwidthHz,
		},
	}
	cfg.WindowSize = flagWindowBytes
	cfg.ChunkSize = flagWindowBytes
	cfg.Buffers = flagBuffers
	cfg.RingWindows = flagRingWindows
	cfg.WaitTimeout = flagWaitTimeout
	var err error
	if cfg.Buffer, err = stream.ParseKind(flagBuffer); err != nil {
		return cfg, err
	}
	if cfg.Engine, err = dsp.ParseKind(flagEngine); err != nil {
		return cfg, err
	}
	if cfg.Window, err = dsp.ParseWindow(flagWindowFunc); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func uiConfig() ui.Config {
	return ui.Config{FPS: flagFPS, DBMin: flagDBMin, DBMax: flagDBMax}
}

// newLogger logs to stderr unless toFile is set or --log-file was given.
func newLogger(cmd *cobra.Command, toFile bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if flagDebug {
		cfg = zap.NewDevelopmentConfig()
	}
	if toFile || cmd.Flags().Changed("log-file") {
		cfg.OutputPaths = []string{flagLogFile}
		cfg.ErrorOutputPaths = []string{flagLogFile}
	}
	return cfg.Build()
}

func openPipeline(ctx context.Context, log *zap.Logger) (*pipeline.Pipeline, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	ctl, rd, err := radio.Open(ctx, flagDevice, log.Named("radio"))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", flagDevice, err)
	}
	p, err := pipeline.New(cfg, ctl, rd, log.Named("pipeline"))
	if err != nil {
		ctl.Close()
		return nil, err
	}
	log.Info("opened device",
		zap.String("device", flagDevice),
		zap.String("buffer", string(cfg.Buffer)),
		zap.String("engine", string(cfg.Engine)),
		zap.Int("window_bytes", cfg.WindowSize))
	return p, nil
}
