package view

import "fmt"

// ErrorKind classifies why a remote view could not be loaded.
type ErrorKind string

const (
	// KindNetwork covers transport failures and non-2xx responses.
	KindNetwork ErrorKind = "network"
	// KindManifest covers undecodable manifests and missing exposed modules.
	KindManifest ErrorKind = "manifest"
	// KindShared is a shared runtime version mismatch between host and remote.
	KindShared ErrorKind = "shared"
	// KindModule is an exposed module that is not a valid template.
	KindModule ErrorKind = "module"
)

// RemoteLoadError reports a failed remote view load. It is surfaced to the
// shell's error boundary; nothing retries it.
type RemoteLoadError struct {
	Remote string
	URL    string
	Kind   ErrorKind
	Err    error
}

func (e *RemoteLoadError) Error() string {
	return fmt.Sprintf("load remote %s (%s) from %s: %v", e.Remote, e.Kind, e.URL, e.Err)
}

func (e *RemoteLoadError) Unwrap() error { return e.Err }
