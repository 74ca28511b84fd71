package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/R3E-Network/data_harmony/pkg/logger"
)

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "text/plain"
}

// staticHandler serves a single-page app: existing files under root are
// served as-is and every other GET falls back to the fallback document.
type staticHandler struct {
	root     string
	fallback string
	log      *logger.Logger
}

// NewStaticHandler serves files below root with fallback (usually
// index.html) for unknown paths.
func NewStaticHandler(root, fallback string, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("static")
	}
	return &staticHandler{root: root, fallback: fallback, log: log}
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name == "/" {
		name = "/" + s.fallback
	}

	if full, ok := s.resolve(name); ok {
		s.serveFile(w, r, full, contentTypeFor(full))
		return
	}
	if full, ok := s.resolve("/" + s.fallback); ok {
		s.serveFile(w, r, full, "text/html")
		return
	}
	NotFound(w, r)
}

// resolve maps a cleaned URL path to a regular file under root.
func (s *staticHandler) resolve(name string) (string, bool) {
	if strings.ContainsRune(name, 0) || strings.Contains(name, `\`) {
		return "", false
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", false
	}
	full := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return full, true
}

func (s *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, full, contentType string) {
	f, err := os.Open(full)
	if err != nil {
		s.log.WithContext(r.Context()).WithError(err).Warn("open static file")
		NotFound(w, r)
		return
	}
	defer f.Close()

	var modTime time.Time
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, "", modTime, f)
}
