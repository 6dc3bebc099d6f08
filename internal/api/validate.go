package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
	"github.com/nerrad567/fieldlink-core/internal/registry"
)

// configRequest is the request body for validation and test endpoints.
type configRequest struct {
	Config adapter.Config `json:"config"`
}

// decodeConfig reads a configRequest body. A missing or empty config is
// allowed; validation reports required fields as data.
func decodeConfig(w http.ResponseWriter, r *http.Request) (adapter.Config, bool) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return nil, false
	}
	if req.Config == nil {
		req.Config = adapter.Config{}
	}
	return req.Config, true
}

// handleValidate runs two-phase validation on a candidate configuration.
//
// Validation failures are part of the 200 response body; only an
// unknown protocol or malformed request body is an HTTP error.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	cfg, ok := decodeConfig(w, r)
	if !ok {
		return
	}

	result, err := s.validator.Validate(code, cfg)
	if err != nil {
		if errors.Is(err, registry.ErrProtocolNotFound) {
			writeNotFound(w, "unknown protocol: "+code)
			return
		}
		writeInternalError(w, "validation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleApplyDefaults fills schema defaults into a partial configuration.
// Explicitly provided values always win over defaults.
func (s *Server) handleApplyDefaults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	cfg, ok := decodeConfig(w, r)
	if !ok {
		return
	}

	filled, err := s.validator.ApplyDefaults(code, cfg)
	if err != nil {
		if errors.Is(err, registry.ErrProtocolNotFound) {
			writeNotFound(w, "unknown protocol: "+code)
			return
		}
		writeInternalError(w, "applying defaults failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"config": filled})
}
