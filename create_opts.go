package ezark

import (
	"log/slog"
	"path/filepath"
)

// createConfig holds configuration for packing and archive writing.
type createConfig struct {
	logger   *slog.Logger
	progress ProgressFunc
	exclude  map[string]struct{}
}

// CreateOption configures Pack, WriteArchive and Create.
type CreateOption func(*createConfig)

// WithLogger sets the logger for progress lines ("mapping directory",
// "mapping file") and for skipped or degraded entries.
// A nil logger discards output.
func WithLogger(l *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = l
	}
}

// WithProgress sets a callback for progress updates during packing and
// writing.
func WithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}

// WithExclude skips the given paths wherever packing meets them, at the
// top level or inside a directory. Paths are compared in absolute, cleaned
// form. Create uses this to keep the destination out of its own blob.
func WithExclude(paths ...string) CreateOption {
	return func(cfg *createConfig) {
		if cfg.exclude == nil {
			cfg.exclude = make(map[string]struct{}, len(paths))
		}
		for _, p := range paths {
			cfg.exclude[resolvePath(p)] = struct{}{}
		}
	}
}

func newCreateConfig(opts []CreateOption) createConfig {
	cfg := createConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (cfg *createConfig) log() *slog.Logger {
	if cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.logger
}

// reportProgress sends a progress event if a callback is configured.
func (cfg *createConfig) reportProgress(ev ProgressEvent) {
	if cfg.progress == nil {
		return
	}
	cfg.progress(ev)
}

// resolvePath returns the absolute, cleaned form of p. It identifies
// directories for the visited set and paths for the exclusion set.
func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
