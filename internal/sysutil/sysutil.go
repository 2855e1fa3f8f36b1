// Package sysutil holds process-level helpers shared by the binaries: log
// level selection, global logger construction and small env helpers.
package sysutil

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetLogLevel sets the global zerolog level from a case-insensitive name
// and returns it. "warning" is accepted for warn; blank or unknown names
// fall back to info. Trace and disabled are not offered.
func SetLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || lvl < zerolog.DebugLevel || lvl > zerolog.PanicLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// LogOptions selects the sinks of the global logger.
type LogOptions struct {
	Level  string
	Pretty bool      // human-readable console output
	File   string    // optional rotating JSON file
	Out    io.Writer // console sink; nil means stderr
}

// Rotation limits for the file sink.
const (
	logMaxSizeMB  = 100
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// SetupLogger installs the global zerolog logger and returns a closer for
// the file sink (a no-op when no file is configured).
func SetupLogger(opts LogOptions) io.Closer {
	SetLogLevel(opts.Level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{out}
	if f := strings.TrimSpace(opts.File); f != "" {
		if dir := filepath.Dir(f); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		lj := &lumberjack.Logger{
			Filename:   f,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// IsTruthy reports whether v reads as yes: 1, true, yes, y or on.
func IsTruthy(v string) bool {
	return slices.Contains(truthy, strings.ToLower(strings.TrimSpace(v)))
}

var truthy = []string{"1", "true", "yes", "y", "on"}

// FirstNonEmpty returns the first non-blank string from a variadic list.
// If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
