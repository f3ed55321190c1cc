package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/dsp"
	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/radio/wav"
	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

var flagImageWidth int

type spectrogramConfig struct {
	State      tuning.State
	WindowSize int
	Engine     dsp.Kind
	Window     dsp.Window
	Width      int
	DBMin      float64
	DBMax      float64
}

func spectrogram(cmd *cobra.Command, inf, outf string) error {
	log, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	pcfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	cfg := spectrogramConfig{
		State:      pcfg.Tuning.State,
		WindowSize: pcfg.WindowSize,
		Engine:     pcfg.Engine,
		Window:     pcfg.Window,
		Width:      flagImageWidth,
		DBMin:      flagDBMin,
		DBMax:      flagDBMax,
	}
	in, err := os.Open(inf)
	if err != nil {
		return err
	}
	defer in.Close()
	var r io.Reader = bufio.NewReader(in)
	if strings.EqualFold(filepath.Ext(inf), ".wav") {
		wr, err := wav.NewReader(r)
		if err != nil {
			return err
		}
		if !wr.IsIQ8() {
			return fmt.Errorf("%s: %w", inf, wav.ErrBadFormat)
		}
		if !cmd.Flags().Changed("sample-rate") {
			cfg.State.SampleRate = uint32(wr.SampleRate())
		}
	}
	out, err := os.Create(outf)
	if err != nil {
		return err
	}
	rows, err := writeSpectrogram(out, r, cfg)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("wrote spectrogram", zap.String("path", outf), zap.Int("rows", rows))
	return nil
}

// writeSpectrogram transforms r one window at a time into a jpg row each.
// A trailing partial window is ignored.
func writeSpectrogram(w io.Writer, r io.Reader, cfg spectrogramConfig) (int, error) {
	e, err := dsp.Plan(cfg.Engine, cfg.WindowSize/2)
	if err != nil {
		return 0, err
	}
	defer e.Close()
	t, err := spectrum.NewTransformer(cfg.WindowSize, e, cfg.Window)
	if err != nil {
		return 0, err
	}
	sg := present.NewSpectrogram(cfg.DBMin, cfg.DBMax)
	raw := make([]byte, cfg.WindowSize)
	for seq := uint64(1); ; seq++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return sg.Rows(), err
		}
		f := &spectrum.Frame{Seq: seq, Bins: t.Transform(raw)}
		sg.Add(present.Decimate(present.Dataset(f, cfg.State), cfg.Width))
	}
	if sg.Rows() == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	return sg.Rows(), sg.WriteJPEG(w)
}
