// Package http exposes the running pipeline over HTTP: tuning status and
// control under /api/sdr/ and a websocket stream of spectrum frames at
// /api/spectrum.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/present"
	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

// Source is the running pipeline as the server sees it.
type Source interface {
	Latest() *spectrum.Latest
	Control() *tuning.ControlChannel
	Stats() pipeline.Result
}

type Server struct {
	id       string
	src      Source
	log      *zap.Logger
	interval time.Duration
	bridge   *present.Bridge
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

func NewServer(src Source, fps int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if fps <= 0 {
		fps = 30
	}
	return &Server{
		id:       uuid.NewString(),
		src:      src,
		log:      log,
		interval: time.Second / time.Duration(fps),
		bridge:   present.NewBridge(src.Latest()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Id identifies this server instance in status replies.
func (s *Server) Id() string { return s.id }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/sdr/", http.StripPrefix("/api/sdr", newSDRHandler(s)))
	mux.HandleFunc("/api/spectrum", s.handleSpectrum)
	return mux
}

// Serve listens on addr and broadcasts frames until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr), zap.String("id", s.id))
	go s.Run(ctx)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
