package view

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"zone.digit.host/internal/config"
)

// Manifest is the entry file a remote publishes to describe what it exposes.
//
//	{
//	  "name": "projectA",
//	  "exposes": {"./App": "assets/app.html"},
//	  "shared": {"hostshell": "^1.0.0"}
//	}
type Manifest struct {
	Name    string            `json:"name"`
	Exposes map[string]string `json:"exposes"`
	// Shared maps a runtime name to the semver constraint the remote needs.
	Shared map[string]string `json:"shared,omitempty"`
}

// ParseManifest decodes and sanity checks a manifest body.
func ParseManifest(body []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(m.Exposes) == 0 {
		return nil, fmt.Errorf("manifest %q exposes no modules", m.Name)
	}
	return &m, nil
}

// Module returns the path of an exposed module.
func (m *Manifest) Module(name string) (string, error) {
	p, ok := m.Exposes[name]
	if !ok || strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("module %q is not exposed by %q", name, m.Name)
	}
	return p, nil
}

// CheckShared verifies every shared constraint against the versions the host
// provides. A malformed constraint is a manifest problem, reported with
// isManifest set.
func (m *Manifest) CheckShared(host config.SharedRuntime) (isManifest bool, err error) {
	names := make([]string, 0, len(m.Shared))
	for name := range m.Shared {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, err := semver.NewConstraint(m.Shared[name])
		if err != nil {
			return true, fmt.Errorf("shared %s: invalid constraint %q: %w", name, m.Shared[name], err)
		}
		provided, ok := host[name]
		if !ok {
			return false, fmt.Errorf("shared %s: not provided by host", name)
		}
		v, err := semver.NewVersion(provided)
		if err != nil {
			return false, fmt.Errorf("shared %s: host version %q: %w", name, provided, err)
		}
		if !c.Check(v) {
			return false, fmt.Errorf("shared %s: host has %s, remote requires %s", name, provided, m.Shared[name])
		}
	}
	return false, nil
}

// joinRemote resolves a manifest-relative path against a remote base URL.
// Leading slashes stay under the base so remotes can be served from a sub-path.
func joinRemote(baseURL, p string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimPrefix(p, "/"))
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
