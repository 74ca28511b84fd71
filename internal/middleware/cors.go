package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "GET, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, X-Trace-ID"
	corsExposeHeaders = "X-Trace-ID, Location"
	corsMaxAge        = "3600"
)

// CORSMiddleware answers cross-origin requests for the configured origins.
type CORSMiddleware struct {
	wildcard bool
	exact    map[string]struct{}
	suffixes []string
}

// NewCORSMiddleware builds the middleware from an origin list. "*" allows
// every origin, an entry starting with "." matches any subdomain and an
// empty list disables CORS headers.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	m := &CORSMiddleware{exact: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		switch {
		case origin == "*":
			m.wildcard = true
		case strings.HasPrefix(origin, "."):
			m.suffixes = append(m.suffixes, origin)
		case origin != "":
			m.exact[origin] = struct{}{}
		}
	}
	return m
}

// Handler wraps next. Preflight requests from allowed origins are answered
// with 204 and never reach next.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !m.allows(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		if m.wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		h.Set("Access-Control-Max-Age", corsMaxAge)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) allows(origin string) bool {
	if m.wildcard {
		return true
	}
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}
