package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/collegepath/pkg/logger"
)

// SetupLogging initializes the logger writing to stdout and, when logFile
// is set, to that file as well. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	closer := func() error { return nil }
	var w io.Writer = os.Stdout

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return closer, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return closer, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return closer, logger.SetLevelString(level)
}

// ShowHelp prints usage information for the probe.
func ShowHelp() {
	os.Stdout.WriteString(`CollegePath Probe
=================

Submits random student profiles to a running CollegePath server and checks
every answer against the reference scorer on the server's own catalog.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -profiles int
        Number of profiles to generate and submit (default 1000)
  -top int
        Maximum recommendations the server returns (default 6)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -batch int
        Profiles sent through the batch API, 0 to skip (default 50)
  -repeat int
        Profiles re-submitted to check determinism (default 10)
  -output string
        Save generated profiles to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Log every mismatch
  -help
        Show this help message

Examples:
  go run ./cmd/probe -profiles 10000 -workers 16 -url http://localhost:8080
`)
}
