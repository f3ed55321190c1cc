package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/spectrum"
	"github.com/chzchzchz/specterm/tuning"
)

// FrameMessage is one spectrum frame as sent to websocket clients. Bins are
// in engine order, dB.
type FrameMessage struct {
	Seq        uint64    `json:"seq"`
	CenterHz   uint32    `json:"center_hz"`
	SampleRate uint32    `json:"sample_rate"`
	Bins       []float64 `json:"bins"`
}

func newFrameMessage(f *spectrum.Frame, st tuning.State) FrameMessage {
	m := FrameMessage{
		Seq:        f.Seq,
		CenterHz:   st.CenterFrequency,
		SampleRate: st.SampleRate,
		Bins:       make([]float64, len(f.Bins)),
	}
	for i, b := range f.Bins {
		m.Bins[i] = b.DB
	}
	return m
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

const (
	clientQueue  = 4
	writeTimeout = 5 * time.Second
)

func (s *Server) handleSpectrum(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientQueue)}
	s.register(c)
	go c.writeLoop(s.log)
	// Reads only detect the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.unregister(c)
	conn.Close()
}

func (c *client) writeLoop(log *zap.Logger) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("websocket write", zap.String("client", c.id), zap.Error(err))
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	s.log.Info("client connected", zap.String("client", c.id), zap.Int("clients", len(s.clients)))
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	close(c.send)
	s.log.Info("client disconnected", zap.String("client", c.id), zap.Int("clients", len(s.clients)))
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}

func (s *Server) numClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge.Frames()
}

// Run takes the newest frame once per tick and fans it out. A client that
// falls behind loses frames rather than stalling the others.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.broadcast()
	}
}

func (s *Server) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.bridge.TryTakeLatest()
	if !ok || len(s.clients) == 0 {
		return
	}
	js, err := json.Marshal(newFrameMessage(f, s.src.Control().State()))
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return
	}
	for _, c := range s.clients {
		select {
		case c.send <- js:
		default:
			s.log.Debug("client behind, frame dropped", zap.String("client", c.id))
		}
	}
}
