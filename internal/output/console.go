// Package output owns user-facing text and logging for the forgeterm
// binaries. The console printer writes bare messages to stdout the way a
// CLI should read, while an optional rotating file log keeps a
// timestamped record for debugging. Both hang off one slog logger so
// every component logs through the same pipe.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// consoleHandler is a slog handler that prints the record message without
// timestamps or level prefixes. Attrs render as trailing key=value pairs.
type consoleHandler struct {
	writer    io.Writer
	debugMode bool
	quiet     *bool // pointer so quiet mode can be toggled after setup
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	line := record.Message
	record.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.writer, line)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *consoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// multiHandler fans out log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// rotatingFileWriter builds the lumberjack writer for a log file, with
// limits tunable through environment variables.
func rotatingFileWriter(path string) *lumberjack.Logger {
	config := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
		Compress:   false,
	}

	if v := os.Getenv("FORGETERM_LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxSize = n
		}
	}
	if v := os.Getenv("FORGETERM_LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.MaxBackups = n
		}
	}
	if v := os.Getenv("FORGETERM_LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxAge = n
		}
	}
	return config
}

// Console is the process-wide printer and logger. Messages go to the
// console handler (suppressed in quiet mode, used while the full-screen
// terminal owns the display) and, when configured, to a rotating file.
type Console struct {
	logger    *slog.Logger
	writer    *os.File
	logWriter io.WriteCloser
	quiet     bool
}

// NewConsole creates a console-only logger. Debug messages are enabled
// when the DEBUG environment variable is set.
func NewConsole() *Console {
	console, _ := NewConsoleWithFile("")
	return console
}

// NewConsoleWithFile creates a logger that also records to logFilePath
// with rotation. An empty path skips file logging.
func NewConsoleWithFile(logFilePath string) (*Console, error) {
	console := &Console{
		writer: os.Stdout,
	}

	handlers := []slog.Handler{&consoleHandler{
		writer:    console.writer,
		debugMode: os.Getenv("DEBUG") != "",
		quiet:     &console.quiet,
	}}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := rotatingFileWriter(logFilePath)
		console.logWriter = fileWriter

		handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		}))
	}

	console.logger = slog.New(&multiHandler{handlers: handlers})
	return console, nil
}

// SetQuiet suppresses console output. File logging continues.
func (c *Console) SetQuiet(quiet bool) {
	c.quiet = quiet
}

// IsQuiet reports whether console output is suppressed.
func (c *Console) IsQuiet() bool {
	return c.quiet
}

// Logger exposes the underlying slog logger for components that log with
// structured attrs, like the engine server's request log.
func (c *Console) Logger() *slog.Logger {
	return c.logger
}

func (c *Console) log(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.logger.Log(context.Background(), level, msg)
}

// Info writes an info message.
func (c *Console) Info(format string, args ...any) {
	c.log(slog.LevelInfo, format, args...)
}

// Warn writes a warning message.
func (c *Console) Warn(format string, args ...any) {
	c.log(slog.LevelWarn, "⚠️  "+format, args...)
}

// Error writes an error message.
func (c *Console) Error(format string, args ...any) {
	c.log(slog.LevelError, "❌ "+format, args...)
}

// Debug writes a debug message, visible only with DEBUG set.
func (c *Console) Debug(format string, args ...any) {
	c.log(slog.LevelDebug, format, args...)
}

// Page writes raw command output straight to the console writer, exactly
// as produced. Quiet mode does not apply to command output.
func (c *Console) Page(content string) {
	_, _ = fmt.Fprint(c.writer, content)
}

// Newline writes a blank line to the console.
func (c *Console) Newline() {
	_, _ = fmt.Fprintln(c.writer)
}

// Close closes the rotating log file if one was opened.
func (c *Console) Close() error {
	if c.logWriter != nil {
		return c.logWriter.Close()
	}
	return nil
}
