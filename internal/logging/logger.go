// Package logging provides structured logging with file and console output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogEntry is one captured log line, kept for the panel's log drawer.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Config holds logger configuration
type Config struct {
	Dir        string // directory for log files; empty disables file output
	Level      string // minimum level, parsed by zerolog (default: info)
	Console    bool   // also log to console
	MaxHistory int    // max entries kept in memory (default: 500)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Console:    true,
		MaxHistory: 500,
	}
}

// Logger wraps zerolog with an in-memory history ring. It registers itself
// as a zerolog hook so every emitted line lands in the history and, when
// set, the onLog callback used for real-time streaming to the panel.
type Logger struct {
	zlog zerolog.Logger
	file *os.File

	mu      sync.RWMutex
	history []LogEntry
	maxHist int
	onLog   func(LogEntry)
}

// New creates a Logger from the config.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 500
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	var file *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("rigpanel_%s.log", time.Now().Format("2006-01-02"))
		file, err = os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	l := &Logger{
		file:    file,
		history: make([]LogEntry, 0, cfg.MaxHistory),
		maxHist: cfg.MaxHistory,
	}
	l.zlog = zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().Timestamp().Str("app", "rigpanel").Logger().
		Hook(l)

	return l, nil
}

// Run implements zerolog.Hook.
func (l *Logger) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.NoLevel || msg == "" {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().Format("15:04:05.000"),
		Level:     level.String(),
		Message:   msg,
	}

	l.mu.Lock()
	l.history = append(l.history, entry)
	if len(l.history) > l.maxHist {
		l.history = l.history[len(l.history)-l.maxHist:]
	}
	onLog := l.onLog
	l.mu.Unlock()

	if onLog != nil {
		go onLog(entry)
	}
}

// SetOnLog sets a callback for real-time log streaming.
func (l *Logger) SetOnLog(fn func(LogEntry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLog = fn
}

// History returns up to limit recent entries, newest last.
func (l *Logger) History(limit int) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.history) {
		limit = len(l.history)
	}
	out := make([]LogEntry, limit)
	copy(out, l.history[len(l.history)-limit:])
	return out
}

// Component returns a zerolog.Logger with the component field set.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
