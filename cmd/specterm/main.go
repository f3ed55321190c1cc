package main

import (
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/ui"
)

// SDL must be driven from the main thread.
func init() { runtime.LockOSThread() }

var (
	flagDevice      string
	flagCenterHz    uint32
	flagSampleRate  uint32
	flagBandwidthHz uint32
	flagPPM         int
	flagAGC         bool

	flagWindowBytes int
	flagBuffers     int
	flagBuffer      string
	flagRingWindows int
	flagEngine      string
	flagWindowFunc  string
	flagWaitTimeout time.Duration

	flagFPS    int
	flagDBMin  float64
	flagDBMax  float64
	flagUI     string
	flagWidth  int
	flagHeight int
	flagListen string

	flagDebug   bool
	flagLogFile string
)

var rootCmd = &cobra.Command{
	Use:          "specterm",
	Short:        "Real-time spectrum viewer for RTL-SDR receivers.",
	SilenceUsage: true,
	RunE:         func(cmd *cobra.Command, args []string) error { return runUI(cmd) },
}

func init() {
	d := pipeline.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagDevice, "device", "d", "rtl://0", "Device URI (rtl://N, rtltcp://host:port, file://path, synth://)")
	pf.Uint32VarP(&flagCenterHz, "center-hz", "c", d.Tuning.CenterFrequency, "Center frequency in Hz")
	pf.Uint32VarP(&flagSampleRate, "sample-rate", "s", d.Tuning.SampleRate, "Sample rate in Hz")
	pf.Uint32VarP(&flagBandwidthHz, "bandwidth-hz", "b", d.Tuning.Bandwidth, "Tuner bandwidth in Hz")
	pf.IntVarP(&flagPPM, "ppm", "p", d.Tuning.PPM, "Frequency correction in ppm")
	pf.BoolVar(&flagAGC, "agc", d.Tuning.AGC, "Enable automatic gain control")

	pf.IntVar(&flagWindowBytes, "window-bytes", d.WindowSize, "Bytes per transform window (twice the transform length)")
	pf.IntVar(&flagBuffers, "buffers", d.Buffers, "Device async buffer count")
	pf.StringVar(&flagBuffer, "buffer", string(d.Buffer), "Stream buffer strategy (ring|queue)")
	pf.IntVar(&flagRingWindows, "ring-windows", d.RingWindows, "Ring capacity in windows")
	pf.StringVar(&flagEngine, "engine", string(d.Engine), "Transform engine (fftw|gonum|godsp)")
	pf.StringVar(&flagWindowFunc, "window-func", string(d.Window), "Window function (none|hann|hamming|blackman)")
	pf.DurationVar(&flagWaitTimeout, "wait-timeout", d.WaitTimeout, "Longest the transform waits for samples")

	pf.IntVar(&flagFPS, "fps", ui.DefaultConfig().FPS, "Display refresh rate")
	pf.Float64Var(&flagDBMin, "db-min", present.DefaultDBMin, "Chart floor in dB")
	pf.Float64Var(&flagDBMax, "db-max", present.DefaultDBMax, "Chart ceiling in dB")

	pf.BoolVar(&flagDebug, "debug", false, "Development logging")
	pf.StringVar(&flagLogFile, "log-file", "specterm.log", "Log file for the terminal UI")

	rootCmd.Flags().StringVar(&flagUI, "ui", "term", "Display (term|sdl)")
	rootCmd.Flags().IntVarP(&flagWidth, "window-width", "W", 1024, "SDL window width")
	rootCmd.Flags().IntVarP(&flagHeight, "window-height", "H", 600, "SDL window height")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run headless and serve spectrum and tuning over HTTP",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return serve(cmd) },
	}
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", ":12000", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)

	recordCmd := &cobra.Command{
		Use:   "record [flags] output.iq8|output.wav",
		Short: "Record raw I/Q from the device",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return record(cmd, args[0]) },
	}
	recordCmd.Flags().DurationVarP(&flagRecordFor, "duration", "t", 0, "Stop after this long (0 records until interrupted)")
	rootCmd.AddCommand(recordCmd)

	spectrogramCmd := &cobra.Command{
		Use:   "spectrogram [flags] input.iq8|input.wav output.jpg",
		Short: "Write a spectrogram jpg of a capture",
		Args:  cobra.ExactArgs(2),
		RunE:  func(cmd *cobra.Command, args []string) error { return spectrogram(cmd, args[0], args[1]) },
	}
	spectrogramCmd.Flags().IntVarP(&flagImageWidth, "image-width", "w", 1024, "Image width in pixels")
	rootCmd.AddCommand(spectrogramCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
