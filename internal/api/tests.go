package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
	"github.com/nerrad567/fieldlink-core/internal/tester"
)

// testRequest is the request body for connection test endpoints.
type testRequest struct {
	Config adapter.Config `json:"config"`

	// FetchSample requests a sample read after connecting.
	FetchSample bool `json:"fetch_sample"`

	// Count is the number of trials for ping and stats endpoints.
	Count int `json:"count"`
}

func decodeTestRequest(w http.ResponseWriter, r *http.Request) (*testRequest, bool) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return nil, false
	}
	if req.Config == nil {
		req.Config = adapter.Config{}
	}
	return &req, true
}

// knownProtocol rejects unknown codes before any test work starts.
func (s *Server) knownProtocol(w http.ResponseWriter, code string) bool {
	if _, err := s.registry.GetAdapter(code); err != nil {
		writeNotFound(w, "unknown protocol: "+code)
		return false
	}
	return true
}

// handleTest runs a full connection test: validate, connect, optionally
// sample, always clean up.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.knownProtocol(w, code) {
		return
	}
	req, ok := decodeTestRequest(w, r)
	if !ok {
		return
	}

	result := s.conntest.TestConnection(r.Context(), code, req.Config, tester.Options{
		Timeout:     time.Duration(s.testerCfg.TimeoutSeconds) * time.Second,
		FetchSample: req.FetchSample,
	})
	writeJSON(w, http.StatusOK, result)
}

// handleQuickTest runs a reachability-only check with the short timeout.
func (s *Server) handleQuickTest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.knownProtocol(w, code) {
		return
	}
	req, ok := decodeTestRequest(w, r)
	if !ok {
		return
	}

	reachable := s.conntest.QuickTest(r.Context(), code, req.Config)
	writeJSON(w, http.StatusOK, map[string]any{"reachable": reachable})
}

// handlePingTest runs sequential reachability trials.
func (s *Server) handlePingTest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.knownProtocol(w, code) {
		return
	}
	req, ok := decodeTestRequest(w, r)
	if !ok {
		return
	}

	result := s.conntest.PingTest(r.Context(), code, req.Config, req.Count)
	writeJSON(w, http.StatusOK, result)
}

// handleConnectionStats runs latency trials and returns aggregates.
func (s *Server) handleConnectionStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.knownProtocol(w, code) {
		return
	}
	req, ok := decodeTestRequest(w, r)
	if !ok {
		return
	}

	stats := s.conntest.GetConnectionStats(r.Context(), code, req.Config, req.Count)
	writeJSON(w, http.StatusOK, stats)
}

// handleDiscover runs a discovery scan when the protocol supports it.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.knownProtocol(w, code) {
		return
	}
	req, ok := decodeTestRequest(w, r)
	if !ok {
		return
	}

	result := s.conntest.DiscoverDevices(r.Context(), code, req.Config,
		time.Duration(s.testerCfg.TimeoutSeconds)*time.Second)
	writeJSON(w, http.StatusOK, result)
}

// batchTestRequest is the request body for the cross-protocol batch endpoint.
type batchTestRequest struct {
	Items       []tester.BatchItem `json:"items"`
	Concurrency int                `json:"concurrency"`
}

// handleBatchTest tests many sensors in bounded concurrent windows.
func (s *Server) handleBatchTest(w http.ResponseWriter, r *http.Request) {
	var req batchTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeBadRequest(w, "items is required")
		return
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = s.testerCfg.BatchConcurrency
	}

	result := s.conntest.BatchTest(r.Context(), req.Items, tester.BatchOptions{
		Concurrency: concurrency,
		Timeout:     time.Duration(s.testerCfg.TimeoutSeconds) * time.Second,
	})
	writeJSON(w, http.StatusOK, result)
}
