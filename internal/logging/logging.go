// Package logging sets up the process-wide hclog logger.
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// EnvLog is the environment variable that controls the log level.
// Unset means only errors are logged.
const EnvLog = "TFVE_LOG"

// NewLogger returns the root logger for the process, configured from the
// environment. Unrecognized level names enable the most verbose level so
// that a typo never silently discards logs.
func NewLogger() hclog.Logger {
	level := hclog.Error
	if v := os.Getenv(EnvLog); v != "" {
		level = hclog.LevelFromString(v)
		if level == hclog.NoLevel {
			level = hclog.Trace
		}
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "tfve",
		Level:  level,
		Output: os.Stderr,
	})
}
