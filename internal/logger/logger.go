package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Color constants for raw terminal output (progress bar)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

var (
	currentLevel = INFO
	verbose      = false

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	colorError   = color.New(color.FgRed, color.Bold)
	colorSuccess = color.New(color.FgGreen, color.Bold)
	colorWarning = color.New(color.FgYellow, color.Bold)
	colorInfo    = color.New(color.FgCyan, color.Bold)
	colorDebug   = color.New(color.FgHiBlack)
	colorKey     = color.New(color.FgBlue)
)

// SetLevel sets the global log level; --quiet raises it to WARNING
func SetLevel(level LogLevel) {
	currentLevel = level
}

// SetVerbose enables verbose logging (DEBUG level)
func SetVerbose(enabled bool) {
	verbose = enabled
	if enabled {
		currentLevel = DEBUG
	} else if currentLevel == DEBUG {
		currentLevel = INFO
	}
}

// IsVerbose returns whether verbose logging is enabled
func IsVerbose() bool {
	return verbose
}

// SetOutput redirects regular and error output. Nil keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// GetColorFunc returns the color used for the level tag
func (l LogLevel) GetColorFunc() *color.Color {
	switch l {
	case DEBUG:
		return colorDebug
	case INFO:
		return colorInfo
	case WARNING:
		return colorWarning
	case ERROR:
		return colorError
	default:
		return color.New(color.Reset)
	}
}

// formatMessage creates "HH:MM - LEVEL : message"
func formatMessage(level LogLevel, message string, args ...interface{}) string {
	timestamp := colorKey.Sprintf("%s", time.Now().Format("15:04"))
	levelStr := level.GetColorFunc().Sprintf("%s", level.String())

	return fmt.Sprintf("%s - %s : %s", timestamp, levelStr, fmt.Sprintf(message, args...))
}

func shouldLog(level LogLevel) bool {
	return level >= currentLevel
}

// Debug logs a debug message (only visible with --verbose)
func Debug(message string, args ...interface{}) {
	if shouldLog(DEBUG) {
		fmt.Fprintln(stdout, formatMessage(DEBUG, message, args...))
	}
}

// Info logs an info message
func Info(message string, args ...interface{}) {
	if shouldLog(INFO) {
		fmt.Fprintln(stdout, formatMessage(INFO, message, args...))
	}
}

// Warning logs a warning message
func Warning(message string, args ...interface{}) {
	if shouldLog(WARNING) {
		fmt.Fprintln(stdout, formatMessage(WARNING, message, args...))
	}
}

// Error logs an error message to stderr
func Error(message string, args ...interface{}) {
	if shouldLog(ERROR) {
		fmt.Fprintln(stderr, formatMessage(ERROR, message, args...))
	}
}

// Success logs an info message with a green tag
func Success(message string, args ...interface{}) {
	if shouldLog(INFO) {
		timestamp := colorKey.Sprintf("%s", time.Now().Format("15:04"))
		fmt.Fprintf(stdout, "%s - %s : %s\n", timestamp, colorSuccess.Sprint(INFO.String()), fmt.Sprintf(message, args...))
	}
}

// Header logs a section title
func Header(message string, args ...interface{}) {
	if shouldLog(INFO) {
		fmt.Fprintln(stdout, formatMessage(INFO, "%s", color.New(color.FgMagenta, color.Bold).Sprintf(message, args...)))
	}
}

// DebugTable logs the shape of a loaded table
func DebugTable(name string, columns []string, rows int) {
	if !shouldLog(DEBUG) {
		return
	}
	Debug("Loaded %s: %d rows", name, rows)
	Debug("  Columns: %s", strings.Join(columns, " | "))
}

// DebugMatrix logs a confusion matrix row by row
func DebugMatrix(labels []string, cells [][]int) {
	if !shouldLog(DEBUG) {
		return
	}
	Debug("Confusion matrix (rows = true, columns = predicted):")
	for i, row := range cells {
		label := fmt.Sprintf("%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		Debug("  %-8s %v", label, row)
	}
}

// DebugSystem logs system information (only in verbose mode)
func DebugSystem() {
	if !shouldLog(DEBUG) {
		return
	}

	Debug("System information:")
	Debug("  OS: %s", runtime.GOOS)
	Debug("  Architecture: %s", runtime.GOARCH)
	Debug("  Go version: %s", runtime.Version())
	Debug("  CPU count: %d", runtime.NumCPU())
}

// DebugConfig logs configuration details (only in verbose mode)
func DebugConfig(config interface{}) {
	if !shouldLog(DEBUG) {
		return
	}

	Debug("Configuration loaded:")
	Debug("  %+v", config)
}
