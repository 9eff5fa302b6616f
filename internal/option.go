package internal

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/title"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithLogger sets the logger, replacing the default stderr JSON logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSummarizer sets the title summarizer, replacing the one built from
// the configuration.
func WithSummarizer(s title.Summarizer) Option {
	return func(a *App) {
		a.summarizer = s
		a.summarizerSet = true
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
