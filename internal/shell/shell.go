// Package shell composes the header and the router outlet into the page.
//
// The page is streamed. Head and header go out first; when the matched view
// is still being fetched the outlet shows a placeholder and the response is
// flushed, then the resolved content follows and /assets/shell.js swaps it in.
package shell

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/nav"
	"zone.digit.host/internal/router"
	"zone.digit.host/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// OutletID is the DOM id of the router outlet.
const OutletID = "host-outlet"

// ErrorBoundary renders the replacement for a view that failed to load.
type ErrorBoundary func(err error) template.HTML

// Shell is the application shell handler.
type Shell struct {
	router   *router.Router
	exposed  config.Exposed
	assets   string
	boundary ErrorBoundary
	logger   *slog.Logger
	tmpl     *template.Template
}

// Option configures a Shell.
type Option func(*Shell)

// WithErrorBoundary replaces the default failure rendering.
func WithErrorBoundary(b ErrorBoundary) Option {
	return func(s *Shell) { s.boundary = b }
}

// WithAssets sets the URL prefix the shell script is served under.
func WithAssets(prefix string) Option {
	return func(s *Shell) { s.assets = prefix }
}

// New creates a Shell rendering r's links and views.
func New(r *router.Router, exposed config.Exposed, logger *slog.Logger, opts ...Option) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{
		router:  r,
		exposed: exposed,
		assets:  "/assets",
		logger:  logger,
		tmpl:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.boundary == nil {
		s.boundary = s.defaultBoundary
	}
	return s
}

type pageData struct {
	Title    string
	Assets   string
	Controls []nav.Control
}

type outletData struct {
	ID          string
	Placeholder string
	Content     template.HTML
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := r.URL.Path
	basename := s.router.Basename()

	outlet := s.router.Mount(ctx, location)
	state := outlet.State()

	status := http.StatusOK
	if state == router.Empty {
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	page := pageData{
		Title:    s.exposed.AppName,
		Assets:   s.assets,
		Controls: nav.Header(s.router.Links(), basename, location),
	}
	if err := s.tmpl.ExecuteTemplate(w, "start", page); err != nil {
		s.logger.Error("render page start", "path", location, "error", err)
		return
	}

	props := view.Props{
		Location: location,
		SubPath:  outlet.SubPath,
		Basename: basename,
		Config:   s.exposed,
	}
	data := outletData{ID: OutletID, Placeholder: outlet.Placeholder()}

	switch state {
	case router.Empty:
		s.execute(w, "outlet", data)
	case router.Pending:
		s.execute(w, "pending", data)
		if err := http.NewResponseController(w).Flush(); err != nil {
			s.logger.Debug("flush not supported", "path", location, "error", err)
		}
		h, err := outlet.Wait(ctx)
		if err != nil && ctx.Err() != nil {
			s.logger.Debug("client went away while view loaded", "path", location)
			return
		}
		data.Content = s.content(outlet, h, err, props)
		s.execute(w, "resolved", data)
	default:
		h, err := outlet.Wait(ctx)
		data.Content = s.content(outlet, h, err, props)
		s.execute(w, "outlet", data)
	}

	s.execute(w, "end", nil)
}

// content renders the outlet's view, routing any failure to the error boundary.
func (s *Shell) content(outlet *router.Outlet, h view.Handle, err error, props view.Props) template.HTML {
	if err == nil && h == nil {
		return ""
	}
	if err == nil {
		var out template.HTML
		out, err = view.RenderHTML(h, props)
		if err == nil {
			return out
		}
	}
	s.logger.Error("view failed", "link", outlet.Link.Label, "path", props.Location, "error", err)
	return s.boundary(err)
}

func (s *Shell) defaultBoundary(error) template.HTML {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "boundary", nil); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

func (s *Shell) execute(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
	}
}
