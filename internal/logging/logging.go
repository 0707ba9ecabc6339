// Package logging configures process-wide structured logging.
//
// In stdio mode the MCP protocol is framed over stdout, so every log line is
// redirected to a file. Logging is a diagnostic side channel: failures to open
// or write the log file are swallowed and never reach a caller.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
)

const serviceName = "tugboat-mcp"

// Setup builds the application logger for the given transport and redirects
// the stdlib log package to the same destination. The returned close function
// releases the log file when one was opened.
func Setup(transport, logFile string, debug bool) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if transport != "stdio" {
		return New(os.Stderr, level), func() {}
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		// No log file, no logging. The server must still come up.
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		return logger, func() {}
	}

	w := &failsafeWriter{w: f}
	log.SetOutput(w)
	return New(w, level), func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

// New returns a JSON logger writing to w with a service attribute.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", serviceName)
}

// failsafeWriter reports every write as successful so that a full disk or a
// closed file can never propagate an error into a tool call.
type failsafeWriter struct {
	w io.Writer
}

func (f *failsafeWriter) Write(p []byte) (int, error) {
	_, _ = f.w.Write(p)
	return len(p), nil
}
