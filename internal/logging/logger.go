package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

type Options struct {
	Level      LogLevel
	Path       string
	BufferSize int
	// Stdout mirrors every line to standard output.
	Stdout bool
	// Rotation is applied once before the file is opened.
	Rotation *LogRotation
}

type Logger struct {
	level  LogLevel
	writer *AsyncWriter
	mirror io.Writer
}

func NewLogger(opts Options) (*Logger, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if opts.Rotation != nil && opts.Rotation.ShouldRotate(opts.Path) {
		if _, err := opts.Rotation.Rotate(opts.Path); err != nil {
			return nil, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	writer, err := NewAsyncWriter(opts.Path, opts.BufferSize)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		level:  opts.Level,
		writer: writer,
	}
	if opts.Stdout {
		l.mirror = os.Stdout
	}
	return l, nil
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)

	line := fmt.Sprintf("[%s] [%s] %s\n", timestamp, levelString(level), message)

	// Drop from the file if the buffer is full; the event path must not block on logging.
	l.writer.Write([]byte(line))
	if l.mirror != nil {
		io.WriteString(l.mirror, line)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

func (l *Logger) Critical(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

func levelString(level LogLevel) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts the names printed in log lines.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "CRITICAL":
		return LevelCritical, true
	}
	return LevelInfo, false
}

func (l *Logger) Close() error {
	return l.writer.Close()
}

var GlobalLogger *Logger

func InitGlobalLogger(opts Options) error {
	logger, err := NewLogger(opts)
	if err != nil {
		return err
	}
	GlobalLogger = logger
	return nil
}

// CloseGlobal flushes the global logger.
func CloseGlobal() error {
	if GlobalLogger == nil {
		return nil
	}
	return GlobalLogger.Close()
}

func Debug(format string, args ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Debug(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Info(format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Warn(format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Error(format, args...)
	}
}

func Critical(format string, args ...interface{}) {
	if GlobalLogger != nil {
		GlobalLogger.Critical(format, args...)
	}
}
