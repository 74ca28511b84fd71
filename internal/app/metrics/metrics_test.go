package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalRoute(t *testing.T) {
	cases := map[string]string{
		"/":                "/",
		"/app.js":          "static",
		"/api/load":        "/api/load",
		"/api/users":       "/api/users",
		"/api/users/":      "/api/users",
		"/api/users/42":    "/api/users/{id}",
		"/api/users/abc":   "/api/unmatched",
		"/api/users/1/x":   "/api/unmatched",
		"/api/nonexistent": "/api/unmatched",
	}
	for in, want := range cases {
		if got := CanonicalRoute(in); got != want {
			t.Errorf("CanonicalRoute(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/{id}", "404"))
	ObserveHTTPRequest("get", "/api/users/{id}", 404, 3*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/{id}", "404"))
	if after-before != 1 {
		t.Fatalf("counter delta = %v, want 1", after-before)
	}
}

func TestHandlerExposesLoadMetrics(t *testing.T) {
	RecordLoad(true, 0)
	SetLoadRecords("users", 10)
	SetLoadOrphans("comments", 2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`harmony_load_runs_total{result="success"}`,
		`harmony_load_records{collection="users"} 10`,
		`harmony_load_orphans{kind="comments"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
