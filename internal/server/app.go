package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"zone.digit.host/internal/catalog"
	"zone.digit.host/internal/config"
	"zone.digit.host/internal/fetch"
	"zone.digit.host/internal/paths"
	"zone.digit.host/internal/router"
	"zone.digit.host/internal/shell"
	"zone.digit.host/internal/storage"
)

// NewApp assembles the link table, router, shell and HTTP routes from cfg.
// db may be nil.
func NewApp(cfg *config.Config, db *storage.Database, logger *slog.Logger) (*chi.Mux, error) {
	deps := catalog.Deps{
		Remotes:      cfg.Remotes,
		ManifestPath: cfg.ManifestPath,
		Shared:       cfg.Shared,
		Getter:       fetch.New(time.Duration(cfg.RemoteTimeoutMS) * time.Millisecond),
		Logger:       logger,
	}
	if db != nil {
		deps.Recorder = db
	}

	links, err := catalog.Load(cfg.RoutesFile, deps)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	logger.Info("link table loaded", "links", len(links), "basename", cfg.Basename)

	sh := shell.New(
		router.New(links, cfg.Basename),
		cfg.Exposed,
		logger,
		shell.WithAssets(paths.For(cfg.Basename, "/assets")),
	)
	return NewRouter(cfg, sh, db, logger), nil
}
