package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

// idSegment in a route pattern matches one or more ASCII digits.
const idSegment = "{id}"

type params struct {
	id int64
}

// routeFunc handles a matched request. A returned error is rendered as a 500
// envelope carrying the route's failure message.
type routeFunc func(w http.ResponseWriter, r *http.Request, p params) error

type route struct {
	method   string
	segments []string
	failure  string
	handle   routeFunc
}

func newRoute(method, pattern, failure string, handle routeFunc) route {
	return route{
		method:   method,
		segments: strings.Split(strings.Trim(pattern, "/"), "/"),
		failure:  failure,
		handle:   handle,
	}
}

// match compares path segments one by one.
func (rt route) match(method string, segments []string) (params, bool) {
	var p params
	if rt.method != method || len(rt.segments) != len(segments) {
		return p, false
	}
	for i, want := range rt.segments {
		got := segments[i]
		if want != idSegment {
			if got != want {
				return p, false
			}
			continue
		}
		if !isDigits(got) {
			return p, false
		}
		id, err := strconv.ParseInt(got, 10, 64)
		if err != nil {
			return p, false
		}
		p.id = id
	}
	return p, true
}

// routeTable is an ordered list; the first match wins.
type routeTable []route

func (t routeTable) lookup(method, path string) (route, params, bool) {
	segments := strings.Split(path, "/")
	for _, rt := range t {
		if p, ok := rt.match(method, segments); ok {
			return rt, p, true
		}
	}
	return route{}, params{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
