package logger

import (
	"os"
	"strings"
	"sync/atomic"
)

// current is swapped by tests while fetch goroutines keep logging
var current atomic.Pointer[Logger]

var levelNames = map[string]LogLevel{
	"DEBUG":   DEBUG,
	"INFO":    INFO,
	"WARN":    WARN,
	"WARNING": WARN,
	"ERROR":   ERROR,
	"FATAL":   FATAL,
}

var formatNames = map[string]LogFormat{
	"json":    JSONFormat,
	"text":    TextFormat,
	"console": TextFormat,
}

func init() {
	current.Store(NewDefault())
	Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Configure sets the process-wide level and format from LOG_LEVEL style
// strings. Blank or unrecognised values are ignored.
func Configure(level, format string) {
	l := current.Load()
	if lv := parseLogLevel(level); lv != -1 {
		l.SetLevel(lv)
	}
	if f := parseLogFormat(format); f != -1 {
		l.SetFormat(f)
	}
}

func parseLogLevel(level string) LogLevel {
	if lv, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return lv
	}
	return -1
}

func parseLogFormat(format string) LogFormat {
	if f, ok := formatNames[strings.ToLower(strings.TrimSpace(format))]; ok {
		return f
	}
	return -1
}

// GetGlobalLogger returns the process-wide logger
func GetGlobalLogger() *Logger {
	return current.Load()
}

// SetGlobalLogger replaces the process-wide logger; nil is ignored
func SetGlobalLogger(l *Logger) {
	if l != nil {
		current.Store(l)
	}
}

// Named scopes the process-wide logger to a component. Long-lived services
// take a Named logger at construction; the package functions below serve
// call sites with no logger of their own.
func Named(component string) *Logger {
	return current.Load().WithComponent(component)
}

func Debug(message string, fields ...map[string]interface{}) {
	current.Load().Debug(message, fields...)
}

func Info(message string, fields ...map[string]interface{}) {
	current.Load().Info(message, fields...)
}

func Warn(message string, fields ...map[string]interface{}) {
	current.Load().Warn(message, fields...)
}

func Error(message string, err error, fields ...map[string]interface{}) {
	current.Load().Error(message, err, fields...)
}
