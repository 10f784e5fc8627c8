package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/fetch"
	"zone.digit.host/internal/storage"
)

// Getter fetches a URL. *fetch.Fetcher implements it.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Recorder receives one record per remote load attempt. *storage.Database
// implements it.
type Recorder interface {
	Record(ctx context.Context, rec storage.LoadRecord) error
}

// RemoteOptions configures a RemoteViewProvider.
type RemoteOptions struct {
	// Name identifies the remote in logs and errors.
	Name string
	// BaseURL is where the remote is deployed, without trailing slash.
	BaseURL string
	// ManifestPath is the fixed manifest file name below BaseURL.
	ManifestPath string
	// Module is the exposed module to mount, e.g. "./App".
	Module   string
	Shared   config.SharedRuntime
	Getter   Getter
	Recorder Recorder
	Logger   *slog.Logger
}

// RemoteViewProvider loads a view from a separately deployed remote. The
// manifest and module are fetched on the first Resolve only; a successful
// load is kept for the process lifetime and failures are not cached.
type RemoteViewProvider struct {
	opts  RemoteOptions
	group singleflight.Group

	mu     sync.RWMutex
	handle Handle
}

// Remote creates a RemoteViewProvider. Nothing is fetched until the view is mounted.
func Remote(opts RemoteOptions) *RemoteViewProvider {
	if opts.ManifestPath == "" {
		opts.ManifestPath = config.DefaultManifestPath
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RemoteViewProvider{opts: opts}
}

// ManifestURL returns the location of the remote manifest.
func (p *RemoteViewProvider) ManifestURL() string {
	u, err := joinRemote(p.opts.BaseURL, p.opts.ManifestPath)
	if err != nil {
		return p.opts.BaseURL + "/" + p.opts.ManifestPath
	}
	return u
}

// Peek returns the cached handle once the remote has loaded.
func (p *RemoteViewProvider) Peek() (Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle, p.handle != nil
}

// Resolve returns the remote view, loading it if needed. Concurrent callers
// share a single load. A caller whose ctx ends stops waiting, but the load
// itself runs to completion so the next mount can use it.
func (p *RemoteViewProvider) Resolve(ctx context.Context) (Handle, error) {
	if h, ok := p.Peek(); ok {
		return h, nil
	}

	ch := p.group.DoChan("load", func() (any, error) {
		if h, ok := p.Peek(); ok {
			return h, nil
		}
		h, err := p.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.handle = h
		p.mu.Unlock()
		return h, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *RemoteViewProvider) load(ctx context.Context) (Handle, error) {
	start := time.Now()
	manifestURL := p.ManifestURL()
	rec := storage.LoadRecord{Remote: p.opts.Name, URL: manifestURL}

	h, err := p.fetchModule(ctx, manifestURL, &rec)

	rec.Duration = time.Since(start).Milliseconds()
	rec.OK = err == nil
	if err != nil {
		var rle *RemoteLoadError
		if errors.As(err, &rle) {
			rec.Kind = string(rle.Kind)
		}
		rec.Error = err.Error()
		p.opts.Logger.Error("remote load failed", "remote", p.opts.Name, "url", rec.URL, "error", err)
	} else {
		p.opts.Logger.Info("remote loaded", "remote", p.opts.Name, "module", p.opts.Module, "duration_ms", rec.Duration)
	}

	if p.opts.Recorder != nil {
		if rerr := p.opts.Recorder.Record(ctx, rec); rerr != nil {
			p.opts.Logger.Warn("failed to record remote load", "remote", p.opts.Name, "error", rerr)
		}
	}
	return h, err
}

func (p *RemoteViewProvider) fetchModule(ctx context.Context, manifestURL string, rec *storage.LoadRecord) (Handle, error) {
	fail := func(kind ErrorKind, url string, err error) error {
		return &RemoteLoadError{Remote: p.opts.Name, URL: url, Kind: kind, Err: err}
	}

	body, err := p.get(ctx, manifestURL, rec)
	if err != nil {
		return nil, fail(KindNetwork, manifestURL, err)
	}

	manifest, err := ParseManifest(body)
	if err != nil {
		return nil, fail(KindManifest, manifestURL, err)
	}
	modulePath, err := manifest.Module(p.opts.Module)
	if err != nil {
		return nil, fail(KindManifest, manifestURL, err)
	}
	if isManifest, err := manifest.CheckShared(p.opts.Shared); err != nil {
		kind := KindShared
		if isManifest {
			kind = KindManifest
		}
		return nil, fail(kind, manifestURL, err)
	}

	moduleURL, err := joinRemote(p.opts.BaseURL, modulePath)
	if err != nil {
		return nil, fail(KindManifest, manifestURL, fmt.Errorf("module path %q: %w", modulePath, err))
	}
	rec.URL = moduleURL

	body, err = p.get(ctx, moduleURL, rec)
	if err != nil {
		return nil, fail(KindNetwork, moduleURL, err)
	}

	tmpl, err := template.New(p.opts.Name + p.opts.Module).Parse(string(body))
	if err != nil {
		return nil, fail(KindModule, moduleURL, err)
	}
	return &templateHandle{tmpl: tmpl}, nil
}

func (p *RemoteViewProvider) get(ctx context.Context, url string, rec *storage.LoadRecord) ([]byte, error) {
	resp, err := p.opts.Getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	rec.Status = resp.Status
	rec.Protocol = resp.Protocol
	rec.ServerIP = resp.ServerIP
	if resp.TLS != nil {
		rec.TLS = resp.TLS.Protocol
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unexpected status %d", resp.Status)
	}
	return resp.Body, nil
}
