package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/archon-research/keeper/internal/pkg/retry"
)

func testClient() *Client {
	return NewClient(Config{
		Timeout: time.Second,
		Retry:   retry.Fixed(2, time.Millisecond),
	}, nil, nil)
}

func TestPostJSON_SendsBodyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var in []map[string]any
		if err := json.Unmarshal(body, &in); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"count": len(in)})
	}))
	defer srv.Close()

	var out struct{ Count int }
	err := testClient().PostJSON(context.Background(), srv.URL, []map[string]any{{"a": 1}, {"b": 2}}, &out)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	if err := testClient().Get(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Errorf("ok = %v calls = %d, want true 3", out.OK, calls.Load())
	}
}

func TestDo_RateLimitedExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testClient().Get(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Get() error = %v, want ErrRateLimited", err)
	}
	if !errors.Is(err, retry.ErrExhausted) {
		t.Errorf("Get() error = %v, want ErrExhausted", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad pair"))
	}))
	defer srv.Close()

	err := testClient().Get(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("Get() expected error")
	}
	if IsRetryable(err) {
		t.Errorf("4xx error should not be retryable")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDo_RequestPolicyOverride(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	none := retry.None()
	_ = testClient().Do(context.Background(), Request{URL: srv.URL, Retry: &none}, nil)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
