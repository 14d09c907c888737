// Package retry retries filesystem operations that fail for transient reasons,
// as happens on network and FUSE mounted data roots.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"syscall"
	"time"
)

// Config controls the backoff between attempts.
type Config struct {
	// Attempts is the total number of calls, including the first one.
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// JitterFactor in [0, 1] spreads concurrent writers apart.
	JitterFactor float64
}

// DefaultConfig returns the settings used for data file writes:
// 4 attempts, 25ms doubling up to 500ms, 10% jitter.
func DefaultConfig() Config {
	return Config{
		Attempts:     4,
		InitialDelay: 25 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		JitterFactor: 0.1,
	}
}

// Do calls fn until it succeeds, fails with an error that IsTransient rejects,
// or runs out of attempts. The last error is returned. Cancelling ctx stops the
// wait between attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt == cfg.Attempts {
			return err
		}

		timer := time.NewTimer(jittered(delay, cfg.JitterFactor))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func jittered(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}
	return delay + time.Duration(float64(delay)*factor*(rand.Float64()*2-1))
}

// transientMessages are failures reported as text by network filesystems and Windows.
var transientMessages = []string{
	"resource temporarily unavailable",
	"device or resource busy",
	"interrupted system call",
	"stale file handle",
	"text file busy",
	"timed out",
	"too many open files",
	"being used by another process",
}

// IsTransient reports whether a filesystem error may succeed if tried again.
// Missing directories, permission problems and encoding errors are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EMFILE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
