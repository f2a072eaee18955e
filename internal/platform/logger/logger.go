// Package logger provides the zerolog logger the tabvault binaries share.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a structured JSON logger on stdout tagged with the service
// name ("tabvault-service", "tabvaultctl").
func New(serviceName string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
