package shell

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/nav"
	"zone.digit.host/internal/router"
	"zone.digit.host/internal/view"
)

type gatedProvider struct {
	release chan struct{}
	handle  view.Handle
	err     error
}

func (p *gatedProvider) Resolve(ctx context.Context) (view.Handle, error) {
	select {
	case <-p.release:
		return p.handle, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flushRecorder snapshots the body each time the handler flushes.
type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed chan string
}

func (f *flushRecorder) Flush() {
	f.flushed <- f.Body.String()
	f.ResponseRecorder.Flush()
}

var exposed = config.Exposed{AppName: "Host App", APIBaseURL: "/api"}

func newShell(about view.Provider, basename string, opts ...Option) *Shell {
	links := []nav.Link{
		{Label: "Homepage", To: "/", View: view.Static(view.Template("home", `<h1>Homepage</h1>`))},
		{Label: "About", To: "/about/*", View: about},
		{Label: "Contact", To: "/contact", View: view.Static(view.Text("Contact"))},
	}
	return New(router.New(links, basename), exposed, nil, opts...)
}

func serve(s *Shell, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLocalViewRendersInline(t *testing.T) {
	rec := serve(newShell(nil, ""), "/contact")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Host App</title>")
	assert.Contains(t, body, `<div id="host-outlet"><div>Contact</div></div>`)
	assert.NotContains(t, body, "Loading...")
}

func TestHeaderControls(t *testing.T) {
	body := serve(newShell(nil, ""), "/contact").Body.String()

	assert.Equal(t, 3, strings.Count(body, "<a href="))
	assert.Equal(t, 1, strings.Count(body, `aria-current="page"`))
	assert.Contains(t, body, `<a href="/contact" class="active" aria-current="page">Contact</a>`)
	assert.Contains(t, body, `<a href="/about">About</a>`)
}

func TestMountedHeader(t *testing.T) {
	body := serve(newShell(nil, "/mount"), "/mount").Body.String()
	assert.Contains(t, body, `<a href="/mount" class="active" aria-current="page">Homepage</a>`)
	assert.Contains(t, body, `<a href="/mount/contact">Contact</a>`)
	assert.Contains(t, body, "<h1>Homepage</h1>")
}

func TestNoMatchRendersHeaderOnly(t *testing.T) {
	rec := serve(newShell(nil, ""), "/unknown")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<nav class="host-header">`)
	assert.Contains(t, body, `<div id="host-outlet"></div>`)
	assert.NotContains(t, body, "active")
}

func TestPendingViewStreamsPlaceholderFirst(t *testing.T) {
	about := &gatedProvider{release: make(chan struct{}), handle: view.Template("about", `<section>About {{.SubPath}}</section>`)}
	s := newShell(about, "")

	rec := &flushRecorder{ResponseRecorder: httptest.NewRecorder(), flushed: make(chan string, 1)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about/team", nil))
	}()

	var first string
	select {
	case first = <-rec.flushed:
	case <-time.After(time.Second):
		t.Fatal("placeholder was not flushed")
	}
	assert.Contains(t, first, `<a href="/about" class="active" aria-current="page">About</a>`)
	assert.Contains(t, first, `<div id="host-outlet" aria-busy="true">Loading...</div>`)
	assert.NotContains(t, first, "<section>")

	close(about.release)
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, `<div id="host-outlet-content" hidden><section>About /team</section></div>`)
	assert.Contains(t, body, `hostShell.resolve("host-outlet")`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))
}

func TestFailedViewUsesErrorBoundary(t *testing.T) {
	loadErr := &view.RemoteLoadError{Remote: "projectA", Kind: view.KindNetwork, Err: errors.New("refused")}
	about := &gatedProvider{release: make(chan struct{}), err: loadErr}
	close(about.release)

	body := serve(newShell(about, ""), "/about").Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.NotContains(t, body, "refused", "error details are logged, not rendered")
}

func TestCustomErrorBoundary(t *testing.T) {
	about := &gatedProvider{release: make(chan struct{}), err: errors.New("boom")}
	close(about.release)

	var got error
	s := newShell(about, "", WithErrorBoundary(func(err error) template.HTML {
		got = err
		return "<p>Fallback</p>"
	}))
	body := serve(s, "/about").Body.String()
	assert.Contains(t, body, "<p>Fallback</p>")
	require.Error(t, got)
	assert.Equal(t, "boom", got.Error())
}

func TestAssetsPrefix(t *testing.T) {
	body := serve(newShell(nil, "", WithAssets("/mount/assets")), "/").Body.String()
	assert.Contains(t, body, `<script src="/mount/assets/shell.js"></script>`)
}
