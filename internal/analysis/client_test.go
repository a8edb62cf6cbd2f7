package analysis_test

import (
	"context"
	"errors"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/almanac/internal/analysis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, endpoint string) *analysis.Client {
	t.Helper()
	return analysis.NewClient(analysis.Options{
		Endpoint: endpoint,
		Model:    "test-model",
		Timeout:  5 * time.Second,
	}, discardLogger())
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if req["response_format"] != "json" {
			t.Errorf("response_format = %v, want json", req["response_format"])
		}
		json.NewEncoder(w).Encode(map[string]string{"content": content})
	}))
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := completionServer(t, `{"summary":"An employment agreement.","confidence":0.92,"parties":["Acme","Jordan"]}`)
	defer srv.Close()

	result, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{
		System: "sys", User: "user",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if result.Summary != "An employment agreement." {
		t.Errorf("Summary = %q", result.Summary)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", result.Confidence)
	}
	if len(result.Raw) == 0 {
		t.Error("Raw should preserve the full response")
	}
}

func TestAnalyzeFencedContent(t *testing.T) {
	srv := completionServer(t, "```json\n{\"summary\":\"ok\",\"confidence\":0.5}\n```")
	defer srv.Close()

	result, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if result.Summary != "ok" {
		t.Errorf("Summary = %q, want ok", result.Summary)
	}
}

func TestAnalyzeServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{})
	if !errors.Is(err, analysis.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestAnalyzeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{})
	if !errors.Is(err, analysis.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	srv := completionServer(t, "I could not produce JSON, sorry.")
	defer srv.Close()

	_, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{})
	if !errors.Is(err, analysis.ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAnalyzeValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing confidence", `{"summary":"text"}`},
		{"confidence above range", `{"summary":"text","confidence":1.2}`},
		{"confidence below range", `{"summary":"text","confidence":-0.1}`},
		{"confidence wrong type", `{"summary":"text","confidence":"high"}`},
		{"missing summary", `{"confidence":0.9}`},
		{"empty summary", `{"summary":"","confidence":0.9}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := completionServer(t, tc.content)
			defer srv.Close()

			_, err := newClient(t, srv.URL).Analyze(context.Background(), analysis.Prompt{})
			if !errors.Is(err, analysis.ErrInvalidResult) {
				t.Errorf("err = %v, want ErrInvalidResult", err)
			}
		})
	}
}

func TestParseResult(t *testing.T) {
	result, err := analysis.ParseResult(json.RawMessage(`{"summary":"s","confidence":0,"extra":true}`))
	if err != nil {
		t.Fatalf("ParseResult error: %v", err)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want boundary value 0", result.Confidence)
	}

	if _, err := analysis.ParseResult(json.RawMessage(`[1,2,3]`)); err == nil {
		t.Error("non-object result should fail validation")
	}
}

