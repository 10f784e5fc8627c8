// Package view defines renderable views and the providers that produce them.
//
// A Provider hands out a Handle on demand. Local providers answer at once;
// RemoteViewProvider fetches a fragment from a separately deployed origin the
// first time it is needed and keeps it for the process lifetime.
package view

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/paths"
)

// Props is the data a view renders with.
type Props struct {
	// Location is the full request path, including the mount prefix.
	Location string
	// SubPath is the part of the location below the matched route pattern.
	SubPath  string
	Basename string
	Config   config.Exposed
}

// Href resolves a navigation target under the mount prefix.
func (p Props) Href(to string) string {
	return paths.For(p.Basename, to)
}

// Handle is a resolved, renderable view.
type Handle interface {
	Render(w io.Writer, props Props) error
}

// Provider resolves a view implementation. Resolve may block on the network.
type Provider interface {
	Resolve(ctx context.Context) (Handle, error)
}

// Peeker is implemented by providers that can sometimes answer without
// blocking. ok is false when Resolve would have to wait.
type Peeker interface {
	Peek() (h Handle, ok bool)
}

// HandleFunc adapts a function to Handle.
type HandleFunc func(w io.Writer, props Props) error

func (f HandleFunc) Render(w io.Writer, props Props) error { return f(w, props) }

// RenderHTML renders h into a buffer so partial output never reaches the page.
func RenderHTML(h Handle, props Props) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.Render(&buf, props); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Text returns a handle rendering s as an escaped block.
func Text(s string) Handle {
	return HandleFunc(func(w io.Writer, _ Props) error {
		_, err := fmt.Fprintf(w, "<div>%s</div>", template.HTMLEscapeString(s))
		return err
	})
}

type templateHandle struct {
	tmpl *template.Template
}

func (h *templateHandle) Render(w io.Writer, props Props) error {
	return h.tmpl.Execute(w, props)
}

// Template returns a handle executing text as an html/template with Props as
// data. It panics on a parse error, as templates are part of the program.
func Template(name, text string) Handle {
	return &templateHandle{tmpl: template.Must(template.New(name).Parse(text))}
}

// LocalViewProvider produces views defined in this process.
type LocalViewProvider struct {
	factory func() Handle
}

// Local returns a provider calling factory each time the view is mounted.
func Local(factory func() Handle) *LocalViewProvider {
	return &LocalViewProvider{factory: factory}
}

// Static returns a provider that always mounts h.
func Static(h Handle) *LocalViewProvider {
	return Local(func() Handle { return h })
}

func (p *LocalViewProvider) Resolve(context.Context) (Handle, error) {
	return p.factory(), nil
}

func (p *LocalViewProvider) Peek() (Handle, bool) {
	return p.factory(), true
}
