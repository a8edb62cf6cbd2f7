package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/almanac/pkg/module"
)

func echoPath() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
}

func TestNewValidatesPrefix(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		wantPanic bool
	}{
		{"valid", "/api", false},
		{"empty", "", true},
		{"unrooted", "api", true},
		{"multi-level", "/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				recovered := recover()
				if (recovered != nil) != tt.wantPanic {
					t.Errorf("panic = %v, wantPanic %v", recovered, tt.wantPanic)
				}
			}()
			module.New(tt.prefix, echoPath())
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	m := module.New("/api", echoPath())

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/documents/abc", nil))

	if got := rec.Body.String(); got != "/documents/abc" {
		t.Errorf("inner path = %q, want /documents/abc", got)
	}
}

func TestServePrefixOnlyBecomesRoot(t *testing.T) {
	m := module.New("/api", echoPath())

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if got := rec.Body.String(); got != "/" {
		t.Errorf("inner path = %q, want /", got)
	}
}

func TestUseAppliesMiddlewareInOrder(t *testing.T) {
	m := module.New("/api", echoPath())

	tag := func(value string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(value + ":"))
				next.ServeHTTP(w, r)
			})
		}
	}

	m.Use(tag("first"))
	m.Use(tag("second"))

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))

	if got := rec.Body.String(); got != "first:second:/x" {
		t.Errorf("body = %q, want first:second:/x", got)
	}
}

func TestRouterDispatch(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", echoPath()))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		wantBody string
	}{
		{"module route", "/api/documents", "/documents"},
		{"module route trailing slash", "/api/documents/", "/documents"},
		{"native route", "/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}

	t.Run("unmatched path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
