package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/collegepath/internal/probe"
)

// Default configuration constants.
const (
	defaultNumProfiles = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultBatchSize   = 50
	defaultRepeats     = 10
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numProfiles = flag.Int("profiles", defaultNumProfiles, "Number of profiles to generate and submit")
		topN        = flag.Int("top", probe.DefaultTopN, "Maximum recommendations the server returns")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		batchSize   = flag.Int("batch", defaultBatchSize, "Profiles sent through the batch API, 0 to skip")
		repeats     = flag.Int("repeat", defaultRepeats, "Profiles re-submitted to check determinism")
		outputFile  = flag.String("output", "", "Save generated profiles to this JSON file")
		logFile     = flag.String("log", "", "Also write logs to this file")
		verbose     = flag.Bool("verbose", false, "Log every mismatch")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	closeLog, err := probe.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:     *baseURL,
		NumProfiles: *numProfiles,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		BatchSize:   *batchSize,
		Repeats:     *repeats,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
