// Package logutil builds the slog loggers used throughout the framework and
// provides context-aware logging with trace IDs.
//
// A logger is constructed once per component from the `logging` configuration
// section and handed to every manager and adapter at construction time; there
// is no process-global logging state beyond slog.Default.
package logutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/lmittmann/tint"
	sloggraylog "github.com/samber/slog-graylog/v2"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Options describes the handlers of a logger. The zero value produces a
// logger that discards everything.
type Options struct {
	// Name is attached to every record as the `logger` attribute.
	Name string

	// Level is the minimum level for the console handler, parsed with
	// ParseLevel. File and GELF handlers always log at debug level.
	Level string

	// Console enables a handler on ConsoleWriter (default os.Stdout),
	// colored via tint when Colored is set and the writer is a terminal.
	Console bool
	Colored bool

	// JSONFormat switches console and file output to JSON records.
	JSONFormat bool

	// File enables a rotating file handler. Dir, when set, replaces the
	// directory part of File. MaxSize is in bytes, BackupCount is the
	// number of rotated files to keep.
	File        string
	Dir         string
	MaxSize     int
	BackupCount int

	// GELFAddress enables shipping records to Graylog (format "ip:port").
	GELFAddress string

	// ConsoleWriter overrides the console destination, mainly for tests.
	ConsoleWriter io.Writer
}

// FromConfig maps the typed logging section onto handler options.
func FromConfig(name string, c cfgutil.LoggingConfig) Options {
	return Options{
		Name:        name,
		Level:       c.Level,
		Console:     c.Console,
		Colored:     c.Colored,
		JSONFormat:  c.JSONFormat,
		File:        c.File,
		Dir:         c.Dir,
		MaxSize:     c.MaxSize,
		BackupCount: c.BackupCount,
		GELFAddress: c.GELFAddress,
	}
}

// New builds a logger fanning out to the configured handlers.
func New(opts Options) (*slog.Logger, error) {
	var handlers []slog.Handler

	level := ParseLevel(opts.Level)

	if opts.Console {
		w := opts.ConsoleWriter
		if w == nil {
			w = os.Stdout
		}
		handlers = append(handlers, consoleHandler(w, level, opts))
	}

	if opts.File != "" {
		h, err := fileHandler(opts)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}

	if opts.GELFAddress != "" {
		gelfWriter, err := gelf.NewWriter(opts.GELFAddress)
		if err != nil {
			return nil, errutil.Wrap(errutil.Configuration, "connect GELF writer", err,
				"address", opts.GELFAddress)
		}
		handlers = append(handlers, sloggraylog.Option{
			Level:  slog.LevelDebug,
			Writer: gelfWriter,
		}.NewGraylogHandler())
	}

	if len(handlers) == 0 {
		handlers = append(handlers,
			slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	if opts.Name != "" {
		logger = logger.With("logger", opts.Name)
	}
	return logger, nil
}

func consoleHandler(w io.Writer, level slog.Level, opts Options) slog.Handler {
	if opts.JSONFormat {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !opts.Colored || !isTerminal(w),
	})
}

func fileHandler(opts Options) (slog.Handler, error) {
	path := opts.File
	if opts.Dir != "" {
		path = filepath.Join(opts.Dir, filepath.Base(opts.File))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errutil.Wrap(errutil.Configuration, "create log directory", err,
				"path", dir)
		}
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    bytesToMegabytes(opts.MaxSize),
		MaxBackups: opts.BackupCount,
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if opts.JSONFormat {
		return slog.NewJSONHandler(w, handlerOpts), nil
	}
	return slog.NewTextHandler(w, handlerOpts), nil
}

// bytesToMegabytes converts the configured rotation size to the whole
// megabytes lumberjack expects, rounding small values up to 1.
func bytesToMegabytes(n int) int {
	if n <= 0 {
		return 10
	}
	mb := n / (1024 * 1024)
	if mb < 1 {
		return 1
	}
	return mb
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ParseLevel converts a configured level name to a slog level. Unknown names
// fall back to info. CRITICAL maps to error, which is the highest level slog
// knows.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
