// Package catalog builds the host's link table from static configuration.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"zone.digit.host/internal/config"
	"zone.digit.host/internal/nav"
	"zone.digit.host/internal/view"
)

// Homepage is the host's landing view.
const Homepage = `<div class="homepage"><h1>Homepage</h1><a href="{{.Href "/about"}}">About</a></div>`

// Deps are the collaborators remote views need.
type Deps struct {
	// Remotes maps remote names to base URLs.
	Remotes      map[string]string
	ManifestPath string
	Shared       config.SharedRuntime
	Getter       view.Getter
	Recorder     view.Recorder
	Logger       *slog.Logger
}

// File is the YAML layout of a routes file.
//
//	links:
//	  - label: Homepage
//	    to: /
//	    local: homepage
//	  - label: About
//	    to: /about/*
//	    remote: projectA
//	    module: ./App
//	  - label: Contact
//	    to: /contact
//	    text: Contact
type File struct {
	Links []Entry `yaml:"links"`
}

// Entry is one link. Exactly one of Local, Text or Remote names its view.
type Entry struct {
	Label  string `yaml:"label"`
	To     string `yaml:"to"`
	Local  string `yaml:"local,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Remote string `yaml:"remote,omitempty"`
	Module string `yaml:"module,omitempty"`
}

// DefaultFile is the table used when no routes file is configured.
func DefaultFile() File {
	return File{Links: []Entry{
		{Label: "Homepage", To: "/", Local: "homepage"},
		{Label: "About", To: "/about/*", Remote: "projectA", Module: "./App"},
		{Label: "Contact", To: "/contact", Text: "Contact"},
		{Label: "Services", To: "/services", Text: "Services"},
		{Label: "Products", To: "/products", Text: "Products"},
		{Label: "Blog", To: "/blog", Text: "Blog"},
	}}
}

// Load reads the routes file at path, or the default table when path is empty.
func Load(path string, deps Deps) ([]nav.Link, error) {
	if path == "" {
		return Build(DefaultFile(), deps), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode routes file %s: %w", path, err)
	}
	return Build(f, deps), nil
}

// Build turns entries into links. Entries are not validated: duplicate
// patterns and unknown references are programming errors that show up when
// the link is mounted. Links to the same remote module share one provider,
// so the module is fetched once however many links use it.
func Build(f File, deps Deps) []nav.Link {
	remotes := map[string]*view.RemoteViewProvider{}
	links := make([]nav.Link, 0, len(f.Links))

	for _, e := range f.Links {
		link := nav.Link{Label: e.Label, To: e.To}
		switch {
		case e.Remote != "":
			key := e.Remote + "|" + e.Module
			p, ok := remotes[key]
			if !ok {
				p = view.Remote(view.RemoteOptions{
					Name:         e.Remote,
					BaseURL:      deps.Remotes[e.Remote],
					ManifestPath: deps.ManifestPath,
					Module:       e.Module,
					Shared:       deps.Shared,
					Getter:       deps.Getter,
					Recorder:     deps.Recorder,
					Logger:       deps.Logger,
				})
				remotes[key] = p
			}
			link.View = p
		case e.Local != "":
			link.View = localView(e.Local)
		case e.Text != "":
			text := e.Text
			link.View = view.Local(func() view.Handle { return view.Text(text) })
		}
		links = append(links, link)
	}
	return links
}

var homepage = view.Template("homepage", Homepage)

// localView returns the named view defined in this binary.
func localView(name string) view.Provider {
	switch name {
	case "homepage":
		return view.Static(homepage)
	default:
		return unknownView(name)
	}
}

type unknownView string

func (u unknownView) Resolve(context.Context) (view.Handle, error) {
	return nil, fmt.Errorf("no local view named %q", string(u))
}
