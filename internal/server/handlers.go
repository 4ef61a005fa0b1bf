package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/interpret"
	"github.com/bilal/speedcheck/internal/metrics"
	"github.com/bilal/speedcheck/internal/render"
	"github.com/rs/zerolog/log"
)

const maxBody = 64 << 10

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.UseNumber()
	return dec.Decode(v)
}

// handleInterpret interprets a raw results object without a session.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid results body")
		return
	}

	res := interpret.InterpretRaw(raw)
	metrics.ObserveResult(res)
	writeJSON(w, http.StatusOK, res)
}

// handleReport renders the results page from query parameters.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	raw := make(map[string]any, 5)
	for _, key := range []string{"download", "upload", "ping", "downloadData", "uploadData"} {
		if q.Has(key) {
			raw[key] = q.Get(key)
		}
	}
	writePage(w, interpret.InterpretRaw(raw))
}

func writePage(w http.ResponseWriter, res interpret.Result) {
	var buf bytes.Buffer
	if err := render.Page(&buf, res); err != nil {
		log.Error().Err(err).Msg("render report failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleBegin starts a measurement session.
func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	t := s.registry.Begin()
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": t.ID(),
		"state":      string(t.State()),
	})
}

// handleSession routes /api/sessions/{id}[/action].
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, action, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	t, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.sessionState(w, t)
	case action == "events" && r.Method == http.MethodPost:
		s.sessionEvent(w, r, t)
	case action == "begin" && r.Method == http.MethodPost:
		t.Begin()
		s.sessionState(w, t)
	case action == "reset" && r.Method == http.MethodPost:
		t.Reset()
		s.sessionState(w, t)
	case action == "report" && r.Method == http.MethodGet:
		c, ok := t.Result()
		if !ok {
			writeError(w, http.StatusConflict, "session has no captured result")
			return
		}
		writePage(w, c.Result)
	default:
		writeError(w, http.StatusNotFound, "unknown session action")
	}
}

func (s *Server) sessionState(w http.ResponseWriter, t *capture.Tracker) {
	body := map[string]any{
		"session_id": t.ID(),
		"state":      t.State(),
	}
	if c, ok := t.Result(); ok {
		body["capture"] = c
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) sessionEvent(w http.ResponseWriter, r *http.Request, t *capture.Tracker) {
	var ev capture.Event
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}

	c, outcome := t.Observe(ev)
	metrics.ObserveOutcome(outcome)

	switch outcome {
	case capture.OutcomeCaptured:
		writeJSON(w, http.StatusOK, c)
	case capture.OutcomeWaiting:
		writeJSON(w, http.StatusAccepted, map[string]string{"state": string(capture.Waiting)})
	case capture.OutcomeDuplicate:
		writeJSON(w, http.StatusConflict, c)
	case capture.OutcomeExpired:
		writeError(w, http.StatusNotFound, "session expired")
	default:
		writeError(w, http.StatusConflict, "session is not waiting for results ("+string(outcome)+")")
	}
}
