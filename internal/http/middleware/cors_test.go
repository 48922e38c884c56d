package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, allowed []string, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := CORS(allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/appointments", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", "PATCH")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func TestCORSOriginMatching(t *testing.T) {
	allowed := []string{"https://portal.example.com/", "https://*.clinicdesk.app"}
	cases := []struct {
		origin string
		want   bool
	}{
		{"https://portal.example.com", true},
		{"https://north.clinicdesk.app", true},
		{"https://a.b.clinicdesk.app", true},
		{"https://.clinicdesk.app", false},
		{"http://north.clinicdesk.app", false},
		{"https://clinicdesk.app", false},
		{"https://unknown.example", false},
	}
	for _, tc := range cases {
		rec, called := corsRequest(t, allowed, http.MethodGet, tc.origin, false)
		if !called {
			t.Fatalf("%s: handler should run for simple requests", tc.origin)
		}
		got := rec.Header().Get("Access-Control-Allow-Origin") == tc.origin
		if got != tc.want {
			t.Fatalf("%s: allowed=%v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	rec, _ := corsRequest(t, []string{"*"}, http.MethodGet, "https://random.example", false)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSHandlesPreflight(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://example.com"}, http.MethodOptions, "https://example.com", true)
	if called {
		t.Fatalf("expected handler to not be called on preflight")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != corsAllowMethods {
		t.Fatalf("expected allow methods on preflight")
	}
}

func TestCORSPreflightFromUnknownOriginPassesThrough(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://example.com"}, http.MethodOptions, "https://evil.example", true)
	if !called {
		t.Fatalf("unknown origins are not answered by the CORS layer")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow origin header")
	}
}

func TestCORSExposesDownloadHeaders(t *testing.T) {
	rec, _ := corsRequest(t, []string{"https://example.com"}, http.MethodGet, "https://example.com", false)
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != corsExposeHeaders {
		t.Fatalf("unexpected expose headers %q", got)
	}
}
