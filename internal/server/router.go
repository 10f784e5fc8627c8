// Package server wires the host's HTTP surface.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/paths"
	"zone.digit.host/internal/static"
	"zone.digit.host/internal/storage"
)

// NewRouter creates the chi router. Host endpoints live under the mount
// prefix; every other GET is rendered by shell.
func NewRouter(cfg *config.Config, shell http.Handler, db *storage.Database, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	if cfg.CORS {
		r.Use(CORS)
	}
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	hostH := NewHostHandler(cfg, db, logger)
	at := func(p string) string { return paths.For(cfg.Basename, p) }

	assets := at("/assets")
	r.Get(at("/"+cfg.ManifestPath), hostH.Manifest)
	r.Handle(assets+"/*", http.StripPrefix(assets, static.Handler()))
	r.Get(at("/config.json"), hostH.Config)
	r.Get(at("/_host/health"), hostH.Health)
	r.Get(at("/_host/remotes"), hostH.Remotes)
	r.Delete(at("/_host/remotes"), hostH.ClearRemotes)

	r.Get("/*", shell.ServeHTTP)
	r.Head("/*", shell.ServeHTTP)

	return r
}
