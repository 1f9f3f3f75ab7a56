package cli

import (
	"os"

	"github.com/Vitruves/metricalc/internal/logger"
	"github.com/Vitruves/metricalc/internal/models"

	"github.com/fatih/color"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	logger.Error(format, args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	logger.Warning(format, args...)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	logger.Success(format, args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}

// PrintFailures prints one "file: message" line per failed file
func PrintFailures(failures []models.Failure) {
	for _, f := range failures {
		logger.Error("%s: %s", f.File, f.Message)
	}
}
