package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"slack-confessions/internal/config"
)

// log levels, lowest to highest
const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

var minLevel = levelInfo

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "confessions")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)
	multiWriter := io.MultiWriter(os.Stdout, rotatingLogger)

	// Set standard logger output to the multi-writer
	log.SetOutput(multiWriter)

	// Set log flags to include date, time, and file information
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	minLevel = parseLevel(cfg.Logger.Level)

	log.Printf("Logging initialized: writing to %s", logFilePath)
	return nil
}

func parseLevel(level string) int {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return levelDebug
	case "WARNING", "WARN":
		return levelWarning
	case "ERROR":
		return levelError
	default:
		return levelInfo
	}
}

func logf(level int, tag, format string, args ...interface{}) {
	if level < minLevel {
		return
	}
	// Output depth 3 attributes the log line to the caller of Infof etc.
	log.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

// Debugf logs a debug-level message
func Debugf(format string, args ...interface{}) {
	logf(levelDebug, "[DEBUG]", format, args...)
}

// Infof logs an info-level message
func Infof(format string, args ...interface{}) {
	logf(levelInfo, "[INFO]", format, args...)
}

// Warningf logs a warning-level message
func Warningf(format string, args ...interface{}) {
	logf(levelWarning, "[WARNING]", format, args...)
}

// Errorf logs an error-level message
func Errorf(format string, args ...interface{}) {
	logf(levelError, "[ERROR]", format, args...)
}
