package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
	"github.com/nerrad567/fieldlink-core/internal/registry"
)

// handleListProtocols returns all registered protocols.
//
// Query parameters:
//   - category: filter by category (industrial, iot, serial, wireless)
func (s *Server) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		if !adapter.ValidCategory(adapter.Category(cat)) {
			writeBadRequest(w, "unknown category: "+cat)
			return
		}
		protocols := s.registry.ProtocolsByCategory(adapter.Category(cat))
		writeJSON(w, http.StatusOK, map[string]any{"protocols": protocols, "count": len(protocols)})
		return
	}

	protocols := s.registry.AllProtocols()
	writeJSON(w, http.StatusOK, map[string]any{"protocols": protocols, "count": len(protocols)})
}

// handleProtocolStats returns protocol counts per category.
func (s *Server) handleProtocolStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      s.registry.Count(),
		"categories": s.registry.CategoryStats(),
	})
}

// handleGetProtocol returns the full descriptor for one protocol.
func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	details, err := s.registry.ProtocolDetails(code)
	if err != nil {
		if errors.Is(err, registry.ErrProtocolNotFound) {
			writeNotFound(w, "unknown protocol: "+code)
			return
		}
		writeInternalError(w, "failed to load protocol")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// handleGetSchema returns the configuration schema for one protocol.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	a, err := s.registry.GetAdapter(code)
	if err != nil {
		writeNotFound(w, "unknown protocol: "+code)
		return
	}
	writeJSON(w, http.StatusOK, a.Schema())
}

// handleGetDefaults returns the default configuration for one protocol.
func (s *Server) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	a, err := s.registry.GetAdapter(code)
	if err != nil {
		writeNotFound(w, "unknown protocol: "+code)
		return
	}
	writeJSON(w, http.StatusOK, a.Defaults())
}

// handleGetCapabilities returns the capability flags for one protocol.
func (s *Server) handleGetCapabilities(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	a, err := s.registry.GetAdapter(code)
	if err != nil {
		writeNotFound(w, "unknown protocol: "+code)
		return
	}
	writeJSON(w, http.StatusOK, a.Capabilities())
}
