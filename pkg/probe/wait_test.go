package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForServerReady_ImmediateSuccess(t *testing.T) {
	srv := modelsServer(t)
	defer srv.Close()

	opts := WaitOptions{Timeout: 10 * time.Second, CheckInterval: time.Second}
	start := time.Now()

	if !WaitForServerReady(context.Background(), srv.URL+"/v1", opts) {
		t.Fatal("expected ready for a healthy server")
	}
	// First check succeeds, so no interval sleep should have happened.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("took %v, expected an immediate return", elapsed)
	}
}

func TestWaitForServerReady_ZeroTimeout(t *testing.T) {
	var checks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks.Add(1)
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	start := time.Now()
	ready := WaitForServerReady(context.Background(), srv.URL+"/v1", WaitOptions{Timeout: 0, CheckInterval: time.Second})

	if ready {
		t.Error("expected false for zero timeout")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("took %v, expected a prompt return", elapsed)
	}
	if n := checks.Load(); n > 1 {
		t.Errorf("made %d health checks, expected at most one", n)
	}
}

func TestWaitForServerReady_TimeoutShorterThanInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := WaitOptions{Timeout: 100 * time.Millisecond, CheckInterval: 5 * time.Second}
	start := time.Now()

	if WaitForServerReady(context.Background(), srv.URL+"/v1", opts) {
		t.Error("expected false for a server that never becomes healthy")
	}
	// One failed check plus one interval sleep at most.
	if elapsed := time.Since(start); elapsed > 6*time.Second {
		t.Errorf("took %v, wait did not respect the deadline", elapsed)
	}
}

func TestWaitForServerReady_BecomesHealthy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Healthy from the third check on.
		if calls.Add(1) >= 3 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"object":"list","data":[{"id":"m1"}]}`))
			return
		}
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := WaitOptions{Timeout: 10 * time.Second, CheckInterval: 50 * time.Millisecond}

	if !WaitForServerReady(context.Background(), srv.URL+"/v1", opts) {
		t.Fatal("expected ready once the server recovers")
	}
	if n := calls.Load(); n < 3 {
		t.Errorf("made %d health checks, expected at least 3", n)
	}
}

func TestWaitForServerReady_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	opts := WaitOptions{Timeout: time.Minute, CheckInterval: 5 * time.Second}
	start := time.Now()

	if WaitForServerReady(ctx, srv.URL+"/v1", opts) {
		t.Error("expected false after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("took %v, cancellation did not end the wait promptly", elapsed)
	}
}

func TestDefaultWaitOptions(t *testing.T) {
	opts := DefaultWaitOptions()
	if opts.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s", opts.Timeout)
	}
	if opts.CheckInterval != 2*time.Second {
		t.Errorf("CheckInterval = %v, want 2s", opts.CheckInterval)
	}
	if opts.Verbose {
		t.Error("Verbose should default to false")
	}
}
