package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newDefaultLogger()
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// SetupLogger routes all log output, debug included, to the given file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	logger.SetOutput(logFile)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	logger.Infof("--- ImageCluster Debug Log Started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file and restores the default stderr logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Infof("--- ImageCluster Debug Log Closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		isSetup = false
		logger = newDefaultLogger()
	}
}

// SetOutput redirects the logger, mainly for tests
func SetOutput(w io.Writer, level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()

	logger.SetOutput(w)
	logger.SetLevel(level)
}

// Enabled reports whether debug output is being recorded
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return isSetup
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// LogImageProcessed logs the outcome of fingerprinting one image
func LogImageProcessed(path string, success bool, errMsg string) {
	entry := current().WithField("path", path)
	if success {
		entry.Debug("PROCESSED")
	} else {
		entry.WithField("error", errMsg).Debug("FAILED")
	}
}

func current() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
