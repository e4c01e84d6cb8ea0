// Package log is the process-wide logger. It keeps printf-style helpers on
// top of log/slog and fans every record out to stdout, a size-rotated file
// and, when configured, Sentry.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// LevelException sits above slog.LevelError and marks failures that need a
// human to look at them.
const LevelException = slog.Level(12)

const (
	defaultLogFilePath  = "./logs/attendance.log"
	defaultMaxSizeBytes = 20 * 1024 * 1024
	envLogFilePath      = "LOG_FILE_PATH"
	envLogMaxSizeMB     = "LOG_MAX_SIZE_MB"
	envLogFormat        = "LOG_FORMAT"
	envLogLevel         = "LOG_LEVEL"
	logFormatJSON       = "json"
)

type Options struct {
	FilePath     string
	MaxSizeBytes int64
	JSON         bool
	Level        slog.Level
	SentryDSN    string
	// Stdout replaces os.Stdout, mostly for tests.
	Stdout io.Writer
}

var (
	mu     sync.RWMutex
	global = newLogger(Options{Level: slog.LevelInfo})
	file   *rotatingFile
)

// OptionsFromEnv reads LOG_FILE_PATH, LOG_MAX_SIZE_MB, LOG_FORMAT and LOG_LEVEL.
func OptionsFromEnv() Options {
	opts := Options{
		FilePath:     strings.TrimSpace(os.Getenv(envLogFilePath)),
		MaxSizeBytes: defaultMaxSizeBytes,
		JSON:         strings.EqualFold(strings.TrimSpace(os.Getenv(envLogFormat)), logFormatJSON),
		Level:        slog.LevelDebug,
	}
	if opts.FilePath == "" {
		opts.FilePath = defaultLogFilePath
	}
	if raw := strings.TrimSpace(os.Getenv(envLogMaxSizeMB)); raw != "" {
		if sizeMB, err := strconv.Atoi(raw); err == nil && sizeMB > 0 {
			opts.MaxSizeBytes = int64(sizeMB) * 1024 * 1024
		}
	}
	if raw := strings.TrimSpace(os.Getenv(envLogLevel)); raw != "" {
		_ = opts.Level.UnmarshalText([]byte(raw))
	}
	return opts
}

// Init rebuilds the global logger. Call it once from main after the
// configuration is loaded.
func Init(opts Options) {
	l := newLogger(opts)
	mu.Lock()
	global = l
	mu.Unlock()
	slog.SetDefault(l)
}

// Logger exposes the underlying slog logger for libraries that want one.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func newLogger(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, ReplaceAttr: replaceLevelName}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	handlers := []slog.Handler{newHandler(stdout, opts.JSON, handlerOpts)}
	if opts.FilePath != "" {
		if opts.MaxSizeBytes <= 0 {
			opts.MaxSizeBytes = defaultMaxSizeBytes
		}
		if file != nil {
			_ = file.Close()
		}
		file = newRotatingFile(opts.FilePath, opts.MaxSizeBytes)
		handlers = append(handlers, newHandler(file, opts.JSON, handlerOpts))
	}
	if opts.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN}); err == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		} else {
			fmt.Fprintf(os.Stderr, "logger sentry init error: %v\n", err)
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func newHandler(w io.Writer, asJSON bool, opts *slog.HandlerOptions) slog.Handler {
	if asJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lv, ok := a.Value.Any().(slog.Level); ok && lv >= LevelException {
		return slog.String(slog.LevelKey, "EXCEPTION")
	}
	return a
}

// Flush waits for buffered Sentry events.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

func Debugf(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

func Infof(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

func Warnf(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

func Errorf(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}

func Exceptionf(format string, args ...any) {
	logf(LevelException, format, args...)
}

func logf(lv slog.Level, format string, args ...any) {
	l := Logger()
	ctx := context.Background()
	if !l.Enabled(ctx, lv) {
		return
	}
	l.Log(ctx, lv, fmt.Sprintf(format, args...), slog.String("caller", callerFuncName(3)))
}

func callerFuncName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	fullName := fn.Name()
	parts := strings.Split(fullName, "/")
	return parts[len(parts)-1]
}
