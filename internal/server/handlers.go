package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/storage"
	"zone.digit.host/internal/view"
)

// HostHandler serves the host's own endpoints.
type HostHandler struct {
	exposed  config.Exposed
	manifest view.Manifest
	db       *storage.Database
	logger   *slog.Logger
}

// NewHostHandler creates the handler. db may be nil, which disables the load log.
func NewHostHandler(cfg *config.Config, db *storage.Database, logger *slog.Logger) *HostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	shared := make(map[string]string, len(cfg.Shared))
	for name, version := range cfg.Shared {
		shared[name] = version
	}
	return &HostHandler{
		exposed: cfg.Exposed,
		manifest: view.Manifest{
			Name:    "host",
			Exposes: map[string]string{"./config": "config.json"},
			Shared:  shared,
		},
		db:     db,
		logger: logger,
	}
}

// Config serves the exposed configuration object.
func (h *HostHandler) Config(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.exposed)
}

// Manifest serves the host's manifest describing what it exposes to remotes.
func (h *HostHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.manifest)
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

// Health reports liveness and storage reachability.
func (h *HostHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.DB = err.Error()
			h.respond(w, r, http.StatusServiceUnavailable, resp)
			return
		}
		resp.DB = "ok"
	}
	h.respond(w, r, http.StatusOK, resp)
}

// Remotes lists recent remote load attempts. Query: remote, limit.
func (h *HostHandler) Remotes(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.respond(w, r, http.StatusOK, []storage.LoadRecord{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.fail(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := h.db.Recent(r.Context(), r.URL.Query().Get("remote"), limit)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, records)
}

// ClearRemotes drops the load log of one remote. Query: remote (required).
func (h *HostHandler) ClearRemotes(w http.ResponseWriter, r *http.Request) {
	remote := r.URL.Query().Get("remote")
	if remote == "" {
		h.fail(w, r, http.StatusBadRequest, "remote is required")
		return
	}
	if h.db != nil {
		if err := h.db.Clear(r.Context(), remote); err != nil {
			h.fail(w, r, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HostHandler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		h.logger.Error("failed to write response",
			"path", r.URL.Path,
			"request_id", RequestIDFrom(r.Context()),
			"error", err,
		)
	}
}

func (h *HostHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.respond(w, r, status, errorBody(msg))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
