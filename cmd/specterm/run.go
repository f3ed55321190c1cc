package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/http"
	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/ui"
	"github.com/chzchzchz/specterm/ui/sdlui"
	"github.com/chzchzchz/specterm/ui/termui"
)

func newRenderer(log *zap.Logger) (ui.Renderer, error) {
	switch flagUI {
	case "term":
		return termui.New(log.Named("termui"))
	case "sdl":
		return sdlui.New(flagWidth, flagHeight, log.Named("sdlui"))
	}
	return nil, fmt.Errorf("unknown ui %q", flagUI)
}

// runPipeline runs p until it stops on its own or stop is called, then
// reports how it ended on the returned channel.
func runPipeline(ctx context.Context, p *pipeline.Pipeline, log *zap.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		res, err := p.Run(ctx)
		log.Info("pipeline stopped",
			zap.Uint64("source_in", res.Source.In),
			zap.Uint64("source_out", res.Source.Out),
			zap.Uint64("source_dropped", res.Source.Dropped),
			zap.Uint64("transform_in", res.Transform.In),
			zap.Uint64("transform_out", res.Transform.Out),
			zap.Error(err))
		errc <- err
	}()
	return errc
}

func runUI(cmd *cobra.Command) error {
	log, err := newLogger(cmd, flagUI == "term")
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRenderer(log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	p, err := openPipeline(ctx, log)
	if err != nil {
		r.Close()
		log.Error("startup failed", zap.Error(err))
		return err
	}

	actx, acancel := context.WithCancel(ctx)
	defer acancel()
	perrc := make(chan error, 1)
	go func() {
		err := <-runPipeline(ctx, p, log)
		acancel()
		perrc <- err
	}()
	appErr := ui.NewApp(r, p, uiConfig(), log.Named("ui")).Run(actx)
	r.Close()
	p.Stop()
	return errors.Join(appErr, <-perrc)
}

func serve(cmd *cobra.Command) error {
	log, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openPipeline(ctx, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	sctx, scancel := context.WithCancel(ctx)
	defer scancel()
	perrc := make(chan error, 1)
	go func() {
		err := <-runPipeline(ctx, p, log)
		scancel()
		perrc <- err
	}()
	srvErr := http.NewServer(p, flagFPS, log.Named("http")).Serve(sctx, flagListen)
	p.Stop()
	return errors.Join(srvErr, <-perrc)
}
