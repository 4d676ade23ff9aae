package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the default info level.
//
// Accepted values are trace, debug, info, warn, error, and off.
const EnvLogLevel = "XWALK_LOG_LEVEL"

var (
	levelOnce sync.Once
	level     = zerolog.InfoLevel

	// LogOutput is where all loggers write to.
	LogOutput io.Writer = os.Stderr
)

// Prefix creates a consistent prefix for all file-based commands to use.
//
// i and n are the zero-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	base := name
	if !strings.HasPrefix(name, "s3://") {
		base = filepath.Base(name)
	}

	return fmt.Sprintf(`[%d/%d] "%s" - `, i+1, n, TruncateRightWithSuffix(base, 30, "..."))
}

type prefixKey struct{}

// NewLogger creates a console logger whose every message starts with prefix.
func NewLogger(prefix string) zerolog.Logger {
	levelOnce.Do(func() {
		if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = lvl
		}
	})

	w := zerolog.ConsoleWriter{
		Out:        LogOutput,
		TimeFormat: time.TimeOnly,
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return prefix
			}

			return prefix + fmt.Sprint(i)
		},
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// WithPrefixLogger creates a new logger using the given prefix, then attaches both the logger and prefix to context.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	logger := NewLogger(prefix)
	return logger.WithContext(context.WithValue(ctx, prefixKey{}, prefix))
}

// MustPrefix returns the prefix string attached to the given context.
func MustPrefix(ctx context.Context) string {
	return ctx.Value(prefixKey{}).(string)
}

// MustLogger returns the logger attached to the given context.
//
// A disabled logger is returned if there is none.
func MustLogger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "none", "disabled":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
