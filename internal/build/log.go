package build

import (
	"os"

	"github.com/btcsuite/btclog/v2"
)

// defaultHandlers is the process-wide set of btclog handlers that every
// package's sub-logger fans out to: a plain console handler by default,
// plus an optional rotating file handler once InitLogRotator has been
// called. Packages never write to os.Stdout directly; they all go through
// a NewSubLogger-derived logger so a single SetLogWriters call changes
// every package's output at once.
var defaultHandlers = NewHandlerSet(
	btclog.NewDefaultHandler(os.Stdout),
)

// NewSubLogger returns a btclog.Logger tagged with subsystem, backed by the
// shared HandlerSet. This mirrors the lnd convention where every package
// declares `var log = build.NewSubLogger("TAG")` in its own log.go and logs
// exclusively through the structured DebugS/InfoS/WarnS/ErrorS/TraceS
// helpers.
func NewSubLogger(subsystem string) btclog.Logger {
	return btclog.NewSLogger(defaultHandlers.SubSystem(subsystem))
}

// SetLogWriters replaces the process-wide handler set, e.g. to add a
// RotatingLogWriter once a log directory is known. Subsystem loggers
// already handed out via NewSubLogger continue to route through the new
// handler set because SubSystem handlers share the same underlying level
// state.
func SetLogWriters(handlers ...btclog.Handler) {
	defaultHandlers = NewHandlerSet(handlers...)
}

// SetLogLevel adjusts the verbosity of every subsystem logger at once.
func SetLogLevel(level btclog.Level) {
	defaultHandlers.SetLevel(level)
}

// InitFileLogging points every subsystem logger at both the console and a
// gzip-rotated log file under cfg.LogDir, in addition to whatever console
// handler is already installed. Callers that never call this keep logging
// to stdout only.
func InitFileLogging(cfg *LogRotatorConfig) (*RotatingLogWriter, error) {
	writer := NewRotatingLogWriter()
	if err := writer.InitLogRotator(cfg); err != nil {
		return nil, err
	}

	SetLogWriters(
		btclog.NewDefaultHandler(os.Stdout),
		btclog.NewDefaultHandler(writer),
	)

	return writer, nil
}
