package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/fetch"
	"zone.digit.host/internal/storage"
)

const (
	testBase     = "http://remote.test/build"
	testManifest = testBase + "/assets/remoteEntry.json"
	testModule   = testBase + "/assets/app.html"
)

type fakeGetter struct {
	mu        sync.Mutex
	responses map[string]*fetch.Response
	errs      map[string]error
	calls     atomic.Int32
	// gate, when set, blocks every Get until closed.
	gate chan struct{}
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{
		responses: map[string]*fetch.Response{
			testManifest: {Status: 200, Body: []byte(`{"name":"projectA","exposes":{"./App":"assets/app.html"},"shared":{"hostshell":"^1.0.0"}}`)},
			testModule:   {Status: 200, Body: []byte(`<section>About {{.SubPath}}</section>`)},
		},
		errs: map[string]error{},
	}
}

func (g *fakeGetter) set(url string, resp *fetch.Response, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[url] = resp
	g.errs[url] = err
}

func (g *fakeGetter) Get(ctx context.Context, url string) (*fetch.Response, error) {
	g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.errs[url]; err != nil {
		return nil, err
	}
	resp, ok := g.responses[url]
	if !ok {
		return &fetch.Response{Status: 404}, nil
	}
	return resp, nil
}

type memRecorder struct {
	mu   sync.Mutex
	recs []storage.LoadRecord
}

func (r *memRecorder) Record(_ context.Context, rec storage.LoadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *memRecorder) all() []storage.LoadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.LoadRecord(nil), r.recs...)
}

func newRemote(g Getter, rec Recorder) *RemoteViewProvider {
	return Remote(RemoteOptions{
		Name:     "projectA",
		BaseURL:  testBase,
		Module:   "./App",
		Shared:   config.SharedRuntime{"hostshell": "1.0.0"},
		Getter:   g,
		Recorder: rec,
	})
}

func TestRemoteResolveAndCache(t *testing.T) {
	g := newFakeGetter()
	rec := &memRecorder{}
	p := newRemote(g, rec)

	_, ok := p.Peek()
	assert.False(t, ok, "nothing is fetched before the first mount")
	assert.Equal(t, int32(0), g.calls.Load())

	h, err := p.Resolve(context.Background())
	require.NoError(t, err)
	out, err := RenderHTML(h, Props{SubPath: "/team"})
	require.NoError(t, err)
	assert.Equal(t, "<section>About /team</section>", string(out))
	assert.Equal(t, int32(2), g.calls.Load())

	_, err = p.Resolve(context.Background())
	require.NoError(t, err)
	_, ok = p.Peek()
	assert.True(t, ok)
	assert.Equal(t, int32(2), g.calls.Load(), "a loaded remote is not fetched again")

	recs := rec.all()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].OK)
	assert.Equal(t, testModule, recs[0].URL)
	assert.Equal(t, 200, recs[0].Status)
}

func TestRemoteLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(g *fakeGetter)
		module  string
		wantURL string
		kind    ErrorKind
	}{
		{
			name:    "network failure",
			setup:   func(g *fakeGetter) { g.set(testManifest, nil, errors.New("connection refused")) },
			wantURL: testManifest,
			kind:    KindNetwork,
		},
		{
			name:    "manifest not found",
			setup:   func(g *fakeGetter) { g.set(testManifest, &fetch.Response{Status: 404}, nil) },
			wantURL: testManifest,
			kind:    KindNetwork,
		},
		{
			name:    "malformed manifest",
			setup:   func(g *fakeGetter) { g.set(testManifest, &fetch.Response{Status: 200, Body: []byte("{")}, nil) },
			wantURL: testManifest,
			kind:    KindManifest,
		},
		{
			name:    "module not exposed",
			setup:   func(g *fakeGetter) {},
			module:  "./Missing",
			wantURL: testManifest,
			kind:    KindManifest,
		},
		{
			name: "shared mismatch",
			setup: func(g *fakeGetter) {
				g.set(testManifest, &fetch.Response{Status: 200, Body: []byte(`{"name":"projectA","exposes":{"./App":"assets/app.html"},"shared":{"hostshell":"^2.0.0"}}`)}, nil)
			},
			wantURL: testManifest,
			kind:    KindShared,
		},
		{
			name:    "module fetch failure",
			setup:   func(g *fakeGetter) { g.set(testModule, &fetch.Response{Status: 500}, nil) },
			wantURL: testModule,
			kind:    KindNetwork,
		},
		{
			name:    "module does not parse",
			setup:   func(g *fakeGetter) { g.set(testModule, &fetch.Response{Status: 200, Body: []byte("{{.Broken")}, nil) },
			wantURL: testModule,
			kind:    KindModule,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGetter()
			tt.setup(g)
			rec := &memRecorder{}
			p := newRemote(g, rec)
			if tt.module != "" {
				p.opts.Module = tt.module
			}

			_, err := p.Resolve(context.Background())
			var rle *RemoteLoadError
			require.True(t, errors.As(err, &rle), "got %v", err)
			assert.Equal(t, tt.kind, rle.Kind)
			assert.Equal(t, "projectA", rle.Remote)
			assert.Equal(t, tt.wantURL, rle.URL)

			recs := rec.all()
			require.Len(t, recs, 1)
			assert.False(t, recs[0].OK)
			assert.Equal(t, string(tt.kind), recs[0].Kind)
		})
	}
}

func TestRemoteFailureIsNotCached(t *testing.T) {
	g := newFakeGetter()
	g.set(testManifest, nil, errors.New("down"))
	p := newRemote(g, nil)

	_, err := p.Resolve(context.Background())
	require.Error(t, err)

	g.set(testManifest, &fetch.Response{Status: 200, Body: []byte(`{"name":"projectA","exposes":{"./App":"assets/app.html"}}`)}, nil)
	_, err = p.Resolve(context.Background())
	require.NoError(t, err)
}

func TestRemoteConcurrentFirstLoadIsShared(t *testing.T) {
	g := newFakeGetter()
	g.gate = make(chan struct{})
	p := newRemote(g, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Resolve(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(g.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestRemoteAbandonedWaitStillCaches(t *testing.T) {
	g := newFakeGetter()
	g.gate = make(chan struct{})
	p := newRemote(g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Resolve(ctx)
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(g.gate)
	require.Eventually(t, func() bool {
		_, ok := p.Peek()
		return ok
	}, time.Second, 5*time.Millisecond)
}
