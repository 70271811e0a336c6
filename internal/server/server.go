// Package server exposes the entry gate over a local HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/openfield/formgate/internal/analytics"
	"github.com/openfield/formgate/internal/gate"
	"github.com/openfield/formgate/internal/model"
	"github.com/openfield/formgate/internal/settings"
	"github.com/openfield/formgate/internal/store"
)

// Config holds server configuration.
type Config struct {
	Addr         string
	SettingsPath string
	DBPath       string
}

// Server serves validation requests over HTTP.
type Server struct {
	cfg   Config
	st    *store.Store
	sink  analytics.Sink
	close func() error

	mu           sync.RWMutex
	validator    *gate.Validator
	settingsHash string

	srv *http.Server
}

// New creates a server with loaded settings and an open store.
func New(cfg Config) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Server{cfg: cfg, st: st, sink: analytics.Nop{}, close: func() error { return nil }}

	sett, hash, err := settings.LoadWithHash(cfg.SettingsPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	if sett.Analytics.Enabled && sett.Analytics.Path != "" {
		fileSink, err := analytics.NewFileSink(sett.Analytics.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
		s.sink = fileSink
		s.close = fileSink.Close
	}

	v, err := buildValidator(context.Background(), sett, st, s.sink)
	if err != nil {
		st.Close()
		return nil, err
	}
	s.validator = v
	s.settingsHash = hash

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// buildValidator wires a gate validator from settings and the store. An
// empty current_project setting falls back to the first configured project.
func buildValidator(ctx context.Context, sett *settings.Settings, st *store.Store, sink analytics.Sink) (*gate.Validator, error) {
	current := sett.CurrentProject
	if current == "" {
		projects, err := st.Projects.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(projects) > 0 {
			current = projects[0].UUID
		}
	}

	return gate.New(gate.Config{
		Projects:           st.Projects,
		Forms:              st.Forms,
		Instances:          st.Instances,
		Deleter:            st.Instances,
		Sink:               sink,
		CurrentProject:     current,
		EditCompletedForms: sett.EditCompletedForms,
		Locale:             sett.Language,
	}), nil
}

// Serve starts the HTTP server. Blocks until Shutdown.
func (s *Server) Serve() error {
	return s.srv.ListenAndServe()
}

// ServeOn starts the server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Close releases the store and the analytics sink.
func (s *Server) Close() error {
	if err := s.close(); err != nil {
		return err
	}
	return s.st.Close()
}

// ReloadSettings re-reads the settings file and swaps the validator. No-op
// when the file is unchanged.
func (s *Server) ReloadSettings() error {
	sett, hash, err := settings.LoadWithHash(s.cfg.SettingsPath)
	if err != nil {
		return err
	}

	s.mu.RLock()
	unchanged := hash == s.settingsHash
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	v, err := buildValidator(context.Background(), sett, s.st, s.sink)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.validator = v
	s.settingsHash = hash
	s.mu.Unlock()
	return nil
}

// validateRequest is the POST /v1/validate body.
type validateRequest struct {
	URI    string            `json:"uri"`
	Action string            `json:"action,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

// validateResponse mirrors a gate outcome.
type validateResponse struct {
	Status    string              `json:"status"`
	ErrorKind gate.Kind           `json:"error_kind,omitempty"`
	Message   string              `json:"message,omitempty"`
	Mode      gate.Mode           `json:"mode,omitempty"`
	Launch    *gate.LaunchRequest `json:"launch,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.URI == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}

	loc, err := model.ParseLocator(req.URI)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	v := s.validator
	s.mu.RUnlock()

	runner := gate.NewRunner(v, nil)
	outcome := <-runner.Start(r.Context(), loc, req.Action, req.Extras)

	switch {
	case outcome.Failure != nil:
		http.Error(w, outcome.Failure.Error(), http.StatusInternalServerError)
		return
	case outcome.Err != nil:
		writeJSON(w, http.StatusOK, validateResponse{
			Status:    "rejected",
			ErrorKind: outcome.Err.Kind,
			Message:   outcome.Err.Message,
		})
	default:
		writeJSON(w, http.StatusOK, validateResponse{
			Status: "ok",
			Mode:   outcome.Launch.Mode,
			Launch: outcome.Launch,
		})
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Ping(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
