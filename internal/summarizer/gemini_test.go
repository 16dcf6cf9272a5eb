package summarizer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGeminiClient(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "gemini-2.5-flash",
		MaxRetries: 2,
		HTTPClient: server.Client(),
	})
}

func TestSummarizeReturnsCandidateText(t *testing.T) {
	var gotPath, gotKey string
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		_, _ = w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "Sea levels are rising "}, {"text": "faster than projected."}]}}
			]
		}`))
	})

	summary, err := client.Summarize(context.Background(), "long article body")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary != "Sea levels are rising faster than projected." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected the API key header, got %q", gotKey)
	}
}

func TestSummarizeRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "recovered"}]}}]}`))
	})

	summary, err := client.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("expected retries to recover: %v", err)
	}
	if summary != "recovered" {
		t.Fatalf("unexpected summary %q", summary)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestSummarizeGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Fatalf("expected persistent 429s to fail")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d", calls.Load())
	}
}

func TestSummarizeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid payload"}}`))
	})

	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Fatalf("expected a 400 to fail")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries on a client error, got %d calls", calls.Load())
	}
}

func TestSummarizeRequiresAPIKey(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{})
	if client.Available() {
		t.Fatalf("client without a key should not report available")
	}
	if _, err := client.Summarize(context.Background(), "text"); !errors.Is(err, ErrGeminiUnavailable) {
		t.Fatalf("expected ErrGeminiUnavailable, got %v", err)
	}
}

func TestSummarizeRejectsEmptyText(t *testing.T) {
	client := newTestGemini(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("empty text should never reach the API")
	})
	if _, err := client.Summarize(context.Background(), "   "); err == nil {
		t.Fatalf("expected empty text to be rejected")
	}
}

type countingSummarizer struct {
	calls atomic.Int32
}

func (c *countingSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestThrottledSpacesOutCalls(t *testing.T) {
	inner := &countingSummarizer{}
	throttled := NewThrottled(inner, 50, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := throttled.Summarize(context.Background(), "text"); err != nil {
			t.Fatalf("summarize failed: %v", err)
		}
	}

	// At 50 rps with burst 1 the second and third calls each wait ~20ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected the limiter to delay calls, finished in %v", elapsed)
	}
	if inner.calls.Load() != 3 {
		t.Fatalf("expected 3 inner calls, got %d", inner.calls.Load())
	}
}

func TestThrottledPropagatesContextCancellation(t *testing.T) {
	inner := &countingSummarizer{}
	throttled := NewThrottled(inner, 0.001, 1)

	// Drain the single burst token.
	if _, err := throttled.Summarize(context.Background(), "text"); err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := throttled.Summarize(ctx, "text"); err == nil {
		t.Fatalf("expected the limiter wait to fail on context timeout")
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("expected the canceled call to never reach the inner summarizer")
	}
}
