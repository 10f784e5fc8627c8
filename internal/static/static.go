package static

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Handler serves the embedded assets. Mount it with the URL prefix stripped;
// unknown paths are 404s, never an HTML fallback.
func Handler() http.Handler {
	fsys, err := fs.Sub(Frontend, "frontend")
	if err != nil {
		fsys = Frontend
	}
	return &staticHandler{fs: fsys}
}

type staticHandler struct {
	fs fs.FS
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		http.NotFound(w, r)
		return
	}
	content, err := fs.ReadFile(h.fs, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.serveContent(w, r, name, content)
}

func (h *staticHandler) serveContent(w http.ResponseWriter, r *http.Request, filePath string, content []byte) {
	mimeType := mime.TypeByExtension(path.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(content)
	}
}
