package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger writes leveled logs for one fbsbot component. Every entry carries
// the component name and the process run id, and goes both to the console
// and to <log dir>/<run id>-fbsbot.log as JSON.
//
// The file receives every level; the console only receives entries at or
// above the level set with Configure.
type Logger struct {
	runID     string
	component string
	file      *os.File
	w         io.Writer
	logger    zerolog.Logger
	logPath   string
	closeOnce sync.Once
}

var (
	// Global run ID for the current process
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir = "logs"

	// consoleLevel filters what reaches the console writer
	consoleLevel = zerolog.InfoLevel

	// console is where human-readable output goes
	console io.Writer = os.Stderr

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	configMu sync.Mutex
)

// Configure sets the log directory and console level. It must be called
// before the first NewLogger; later calls only change the console level of
// loggers created afterwards.
func Configure(dir, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	configMu.Lock()
	defer configMu.Unlock()
	if dir != "" {
		logDir = dir
	}
	consoleLevel = lvl
	return nil
}

// ParseLevel parses debug, info, warn or error. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// getRunID returns or creates the run ID for this process
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		configMu.Lock()
		dir := logDir
		configMu.Unlock()

		if err := os.MkdirAll(dir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

func consoleWriter() io.Writer {
	configMu.Lock()
	defer configMu.Unlock()
	return &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"}},
		Level:  consoleLevel,
	}
}

// NewLogger creates a new logger for a specific component.
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a console-only logger along with the error. Callers can check
// the error to detect fallback mode and log a warning.
func NewLogger(component string) (*Logger, error) {
	id := getRunID()

	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s-fbsbot.log", id))

	// Append mode; every component of the run shares the file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	w := zerolog.MultiLevelWriter(file, consoleWriter())
	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		w:         w,
		logger:    newZerolog(w, component, id),
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a console-only logger when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	w := consoleWriter()
	l := &Logger{
		runID:     getRunID(),
		component: component,
		w:         w,
		logger:    newZerolog(w, component, getRunID()),
	}
	l.Warnf("Failed to initialize file logging, falling back to console: %v", err)
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{component: "nop", logger: zerolog.Nop()}
}

// New wraps an arbitrary writer. Entries are written as JSON at every level.
func New(w io.Writer, component string) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		w:         w,
		logger:    newZerolog(w, component, getRunID()),
	}
}

func newZerolog(w io.Writer, component, id string) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("component", component).
		Str("run_id", id).
		Logger()
}

// Component returns a logger for another component that writes to the same
// destinations. It shares the parent's file; only the parent should be closed.
func (l *Logger) Component(name string) *Logger {
	if l.w == nil {
		return Nop()
	}
	return &Logger{
		runID:     l.runID,
		component: name,
		w:         l.w,
		logger:    newZerolog(l.w, name, l.runID),
		logPath:   l.logPath,
	}
}

// With returns a child logger that adds key=value to every entry.
// The child shares the parent's file; only the parent should be closed.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: l.component,
		w:         l.w,
		logger:    l.logger.With().Str(key, value).Logger(),
		logPath:   l.logPath,
	}
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

// Zerolog exposes the underlying logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

// RunID returns the run ID this logger is tagged with
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty in fallback mode
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
