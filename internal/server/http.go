package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/value"
)

const maxBodyBytes = 1 << 20

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /api/fields", s.fieldsHandler)
	mux.HandleFunc("GET /api/snapshot", s.snapshotHandler)
	mux.HandleFunc("POST /api/fields/{id}", s.setFieldHandler)
	mux.HandleFunc("POST /api/fields/{id}/nudge", s.nudgeHandler)
	mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	return mux
}

// healthHandler answers liveness probes.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) fieldsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Sections(s.reg))
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type setFieldBody struct {
	Value *value.Value `json:"value"`
}

func (s *Server) setFieldHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body setFieldBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, fmt.Errorf("invalid body: %w", err))
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, errors.New(`body must be {"value": <number or string>}`))
		return
	}

	snap, err := s.SetField(r.Context(), id, *body.Value)
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type nudgeBody struct {
	Steps any  `json:"steps"`
	Large bool `json:"large"`
}

func (s *Server) nudgeHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body nudgeBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, fmt.Errorf("invalid body: %w", err))
		return
	}
	steps, err := wholeSteps(body.Steps)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalid, err)
		return
	}

	snap, err := s.Nudge(r.Context(), id, steps, body.Large)
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}
