// Package datastore logging infrastructure for database operations
package datastore

import (
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"gorm.io/gorm/logger"

	"github.com/MC-Knight/django-bims/internal/logging"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex

	// defaultLogPath follows the project-wide convention of a "logs/"
	// directory shared with the web log.
	defaultLogPath = "logs/datastore.log"
)

// InitializeLogger initializes the datastore logger with the specified log
// file path. Safe to call multiple times; initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		fileLogger, closeFunc, err := logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		if err != nil {
			// Fall back to the default structured logger rather than failing
			loggerMu.Lock()
			datastoreLogger = slog.Default().With("service", "datastore")
			loggerCloseFunc = func() error { return nil }
			loggerMu.Unlock()
			initErr = err
			return
		}

		loggerMu.Lock()
		datastoreLogger = fileLogger
		loggerCloseFunc = closeFunc
		loggerMu.Unlock()
	})

	return initErr
}

// getDatastoreLogger returns the datastore logger, falling back to the
// process-wide default when InitializeLogger has not been called.
func getDatastoreLogger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if datastoreLogger == nil {
		return slog.Default().With("service", "datastore")
	}
	return datastoreLogger
}

// SetLogLevel adjusts the datastore log level at runtime.
func SetLogLevel(level slog.Level) {
	datastoreLevelVar.Set(level)
}

// CloseLogger closes the underlying log writer.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}

// createGormLogger builds the gorm logger used by all store implementations.
// Debug mode logs every statement, otherwise only slow queries and errors.
func createGormLogger(debug bool) logger.Interface {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
