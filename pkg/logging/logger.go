// Package logging provides structured logging for sitescan components.
//
// Every component logger for a given process shares one run-scoped log file
// in ~/.sitescan/logs/. Info, warning, and error lines are additionally
// echoed to stderr, which is the CLI's visible log stream; debug lines go to
// the file only.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes timestamped, leveled log entries for a single component.
type Logger struct {
	runID     string
	component string
	file      *os.File
	fileLog   *log.Logger
	stderrLog *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	// Run ID shared by all loggers in this process
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error
)

// getRunID returns or creates the run ID for this process.
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory ensures the log directory exists.
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".sitescan", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a logger for the named component, writing to
// ~/.sitescan/logs/<run-id>-sitescan.log. If the log directory or file
// cannot be prepared, it returns a stderr-only logger along with the error;
// the returned logger is always usable.
func NewLogger(component string) (*Logger, error) {
	stderrLog := log.New(os.Stderr, "", 0)

	if err := initLogDirectory(); err != nil {
		return newStderrLogger(component, stderrLog), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-sitescan.log", id))

	// Append mode: multiple components share the run's log file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newStderrLogger(component, stderrLog), fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		fileLog:   log.New(file, "", 0),
		stderrLog: stderrLog,
		logPath:   logPath,
	}, nil
}

// newStderrLogger builds the fallback logger used when file logging fails.
func newStderrLogger(component string, stderrLog *log.Logger) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		stderrLog: stderrLog,
	}
}

func (l *Logger) formatEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// write emits one entry, echoing to stderr for visible levels.
func (l *Logger) write(level string, echo bool, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.formatEntry(level, fmt.Sprintf(format, v...))
	if l.fileLog != nil {
		l.fileLog.Println(entry)
	}
	if echo || l.fileLog == nil {
		l.stderrLog.Println(entry)
	}
}

// Debugf logs a debug-level message to the log file only.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", false, format, v...)
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", true, format, v...)
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", true, format, v...)
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", true, format, v...)
}

// RunID returns the run ID shared by this process's loggers.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" in stderr-only mode.
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
