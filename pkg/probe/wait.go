package probe

import (
	"context"
	"log/slog"
	"time"
)

// WaitOptions controls WaitForServerReady.
//
// Timeout is taken literally: a zero or negative Timeout returns false after
// at most one loop iteration. Use DefaultWaitOptions for the usual 120s/2s
// polling settings.
type WaitOptions struct {
	// Timeout is the maximum wall-clock time to wait.
	Timeout time.Duration

	// CheckInterval is the sleep between health checks. Values <= 0 use 2s.
	CheckInterval time.Duration

	// Verbose emits a progress log line at roughly every 10 seconds of
	// waiting plus a final success/failure line.
	Verbose bool
}

// DefaultWaitOptions returns the standard polling settings: 120s timeout,
// 2s check interval, quiet.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		Timeout:       120 * time.Second,
		CheckInterval: 2 * time.Second,
	}
}

// WaitForServerReady polls CheckServerHealth until the server answers or the
// timeout elapses. It returns true immediately on the first healthy check and
// false once the deadline is exceeded or ctx is cancelled. It is a plain
// sleep-based poll with no jitter or backoff.
func WaitForServerReady(ctx context.Context, serverURL string, opts WaitOptions) bool {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 2 * time.Second
	}

	if opts.Verbose {
		slog.Info("waiting for server", "url", serverURL, "timeout", opts.Timeout)
	}

	start := time.Now()
	lastReported := -1

	for time.Since(start) < opts.Timeout {
		if CheckServerHealth(ctx, serverURL, 5*time.Second) {
			if opts.Verbose {
				slog.Info("server ready", "elapsed", time.Since(start).Round(100*time.Millisecond))
			}
			return true
		}

		select {
		case <-ctx.Done():
			if opts.Verbose {
				slog.Info("wait cancelled", "elapsed", time.Since(start).Round(100*time.Millisecond))
			}
			return false
		case <-time.After(opts.CheckInterval):
		}

		// Progress line at each ~10 second boundary.
		elapsed := int(time.Since(start).Seconds())
		if opts.Verbose && elapsed%10 == 0 && elapsed != lastReported {
			lastReported = elapsed
			slog.Info("still waiting",
				"elapsed_seconds", elapsed,
				"timeout_seconds", int(opts.Timeout.Seconds()),
			)
		}
	}

	if opts.Verbose {
		slog.Info("server failed to become ready", "timeout", opts.Timeout)
	}
	return false
}
