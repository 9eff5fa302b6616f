// Package lockfile implements a cooperative, crash-tolerant mutex built on
// exclusive file creation. It provides mutual exclusion only among processes
// honoring the same protocol and lock path.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Options tune the acquisition loop. The defaults match the hook deployment:
// rapid successive turns contend for tens of milliseconds, and anything
// holding a lock for two minutes is presumed dead.
type Options struct {
	Timeout    time.Duration // overall acquisition budget
	RetryDelay time.Duration // sleep between attempts
	StaleAfter time.Duration // mtime age past which a lock is stolen
}

// DefaultOptions returns the production acquisition parameters.
func DefaultOptions() Options {
	return Options{
		Timeout:    10 * time.Second,
		RetryDelay: 50 * time.Millisecond,
		StaleAfter: 120 * time.Second,
	}
}

// WithLock runs action while holding the lock at lockPath, using default
// options. The lock is released on every exit path, including action errors.
func WithLock(lockPath string, action func() error) error {
	return WithLockOptions(lockPath, DefaultOptions(), action)
}

// WithLockOptions is WithLock with explicit acquisition parameters.
//
// Acquisition attempts an exclusive create of lockPath. When the file already
// exists, a lock older than StaleAfter is deleted and re-acquisition retried
// immediately (crash recovery); otherwise the caller sleeps RetryDelay and
// retries until Timeout elapses, at which point apperr.ErrLockTimeout is
// returned. Any other filesystem error aborts immediately.
func WithLockOptions(lockPath string, opts Options, action func() error) error {
	started := time.Now()

	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		switch {
		case err == nil:
			// Diagnostic only; correctness never depends on the content.
			fmt.Fprintf(f, "pid=%d\n", os.Getpid())
			f.Close()

			actionErr := action()
			if rmErr := os.Remove(lockPath); rmErr != nil && actionErr == nil {
				return fmt.Errorf("lockfile: release %s: %w", lockPath, rmErr)
			}
			return actionErr

		case errors.Is(err, fs.ErrExist):
			if isStale(lockPath, opts.StaleAfter) {
				os.Remove(lockPath)
				continue
			}
			if time.Since(started) > opts.Timeout {
				return fmt.Errorf("lockfile: waiting for %s: %w", lockPath, apperr.ErrLockTimeout)
			}
			time.Sleep(opts.RetryDelay)

		default:
			return fmt.Errorf("lockfile: create %s: %w", lockPath, err)
		}
	}
}

func isStale(lockPath string, staleAfter time.Duration) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleAfter
}
