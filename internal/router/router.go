// Package router maps locations to navigation links and mounts their views.
package router

import (
	"context"
	"sync"

	"zone.digit.host/internal/nav"
	"zone.digit.host/internal/paths"
	"zone.digit.host/internal/view"
)

// DefaultPlaceholder is shown while a view is being fetched.
const DefaultPlaceholder = "Loading..."

// State is the lifecycle of an Outlet.
type State int

const (
	// Empty means no link matched and nothing is mounted.
	Empty State = iota
	// Pending means the view is still being resolved.
	Pending
	// Ready means the view handle is available.
	Ready
	// Failed means resolving the view returned an error.
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Router selects the first link whose pattern matches a location.
type Router struct {
	links       []nav.Link
	basename    string
	placeholder string
}

// Option configures a Router.
type Option func(*Router)

// WithPlaceholder replaces the text shown while a view loads.
func WithPlaceholder(text string) Option {
	return func(r *Router) { r.placeholder = text }
}

// New creates a Router over links. The list is copied and never changes.
func New(links []nav.Link, basename string, opts ...Option) *Router {
	r := &Router{
		links:       append([]nav.Link(nil), links...),
		basename:    basename,
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Links returns the link list in order.
func (r *Router) Links() []nav.Link {
	return append([]nav.Link(nil), r.links...)
}

// Basename returns the mount prefix.
func (r *Router) Basename() string {
	return r.basename
}

// Select returns the first link matching location. Locations outside the
// mount prefix never match.
func (r *Router) Select(location string) (nav.Link, bool) {
	rest, ok := paths.Strip(r.basename, location)
	if !ok {
		return nav.Link{}, false
	}
	for _, link := range r.links {
		if paths.Match(link.To, rest) {
			return link, true
		}
	}
	return nav.Link{}, false
}

// Mount selects the link for location and starts resolving its view. Views
// that can answer synchronously come back Ready; others resolve in the
// background until ctx ends.
func (r *Router) Mount(ctx context.Context, location string) *Outlet {
	o := &Outlet{
		Location:    location,
		placeholder: r.placeholder,
		done:        make(chan struct{}),
	}

	link, ok := r.Select(location)
	if !ok || link.View == nil {
		o.state = Empty
		close(o.done)
		return o
	}
	rest, _ := paths.Strip(r.basename, location)
	o.Link = link
	o.SubPath = paths.Rest(link.To, rest)

	if p, ok := link.View.(view.Peeker); ok {
		if h, ok := p.Peek(); ok {
			o.state = Ready
			o.handle = h
			close(o.done)
			return o
		}
	}

	o.state = Pending
	go func() {
		h, err := link.View.Resolve(ctx)
		o.mu.Lock()
		if err != nil {
			o.state = Failed
			o.err = err
		} else {
			o.state = Ready
			o.handle = h
		}
		o.mu.Unlock()
		close(o.done)
	}()
	return o
}

// Outlet is the mount point of the matched view.
type Outlet struct {
	Link     nav.Link
	Location string
	// SubPath is the location below the matched pattern's base.
	SubPath string

	placeholder string
	done        chan struct{}

	mu     sync.Mutex
	state  State
	handle view.Handle
	err    error
}

// State returns the current state.
func (o *Outlet) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Placeholder returns the text to show while the outlet is Pending.
func (o *Outlet) Placeholder() string {
	return o.placeholder
}

// Done is closed once the outlet leaves Pending.
func (o *Outlet) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the view is resolved or ctx ends. An Empty outlet returns
// a nil handle and no error.
func (o *Outlet) Wait(ctx context.Context) (view.Handle, error) {
	select {
	case <-o.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handle, o.err
}
