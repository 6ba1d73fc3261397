// Package logging builds the zerolog loggers used by the wut binaries.
//
// The chat client owns the terminal, so its log goes to a file under the
// application home. The relay logs to stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the log file created under the application home.
const FileName = "wut.log"

// ParseLevel accepts debug, info, warn or error. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// OpenFile appends JSON log lines to <home>/wut.log. The returned closer
// must be closed when the program exits.
func OpenFile(home, level string) (zerolog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(filepath.Join(home, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(f, lvl), f, nil
}

// New returns a timestamped JSON logger writing to w.
func New(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Console returns a stdout logger, human-readable when development is set.
func Console(development bool, lvl zerolog.Level) zerolog.Logger {
	if development {
		return New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, lvl)
	}
	return New(os.Stdout, lvl)
}
