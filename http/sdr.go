package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/chzchzchz/specterm/pipeline"
	"github.com/chzchzchz/specterm/tuning"
)

var errEmptyTune = errors.New("no tuning fields given")

type SDRStatus struct {
	Id string `json:"id"`
	tuning.State
	Stats   pipeline.Result `json:"stats"`
	Frames  uint64          `json:"frames"`
	Clients int             `json:"clients"`
}

// SDRTune changes any subset of the tuning; absent fields are left alone.
type SDRTune struct {
	CenterHz    *uint32 `json:"center_hz,omitempty"`
	SampleRate  *uint32 `json:"sample_rate,omitempty"`
	BandwidthHz *uint32 `json:"bandwidth_hz,omitempty"`
}

type sdrHandler struct {
	s *Server
}

func newSDRHandler(s *Server) http.Handler {
	sh := sdrHandler{s}
	mux := http.NewServeMux()
	mux.HandleFunc("/tune", sh.handleTune)
	mux.HandleFunc("/", sh.handleIndex)
	return mux
}

func (sh *sdrHandler) status() SDRStatus {
	return SDRStatus{
		Id:      sh.s.id,
		State:   sh.s.src.Control().State(),
		Stats:   sh.s.src.Stats(),
		Frames:  sh.s.frames(),
		Clients: sh.s.numClients(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(js)
}

func (sh *sdrHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, sh.status())
}

func (sh *sdrHandler) handleTune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var msg SDRTune
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sh.tune(msg); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, tuning.ErrStopped) {
			code = http.StatusServiceUnavailable
		}
		sh.s.log.Warn("tune rejected", zap.Error(err))
		http.Error(w, err.Error(), code)
		return
	}
	writeJSON(w, sh.status())
}

func (sh *sdrHandler) tune(msg SDRTune) error {
	fields := []struct {
		f  tuning.Field
		hz *uint32
	}{
		{tuning.CenterFrequency, msg.CenterHz},
		{tuning.Bandwidth, msg.BandwidthHz},
		{tuning.SampleRate, msg.SampleRate},
	}
	n := 0
	for _, fv := range fields {
		if fv.hz == nil {
			continue
		}
		if err := sh.s.src.Control().Apply(fv.f, *fv.hz); err != nil {
			return fmt.Errorf("tune %s: %w", fv.f, err)
		}
		n++
	}
	if n == 0 {
		return errEmptyTune
	}
	return nil
}
