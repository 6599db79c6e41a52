package ezark

import "log/slog"

// extractConfig holds configuration for extraction.
type extractConfig struct {
	logger   *slog.Logger
	progress ProgressFunc
	workers  int
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// ExtractWithWorkers sets how many files are written concurrently.
// Values below 2 extract serially, which is the default.
//
// Directories are always created by the traversal itself, so a file is
// never written before its parent exists.
func ExtractWithWorkers(n int) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.workers = n
	}
}

// ExtractWithLogger sets the logger for "extracting directory" and
// "extracting file" lines. It defaults to the logger the archive was
// opened with.
func ExtractWithLogger(l *slog.Logger) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.logger = l
	}
}

// ExtractWithProgress sets a callback for progress updates. With more than
// one worker the callback is invoked concurrently.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.progress = fn
	}
}

func (cfg *extractConfig) log() *slog.Logger {
	if cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.logger
}

func (cfg *extractConfig) reportProgress(ev ProgressEvent) {
	if cfg.progress == nil {
		return
	}
	cfg.progress(ev)
}
