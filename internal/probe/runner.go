package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete probe and returns the collected statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting collegepath probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("profiles", config.NumProfiles),
		logger.Int("workers", config.Workers),
		logger.Int("batchSize", config.BatchSize),
		logger.Duration("timeout", config.Timeout))

	if config.NumProfiles <= 0 {
		return stats, ErrNoProfiles
	}
	client := NewHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, err
	}

	// Step 2: Fetch the catalog the server scores against
	var catalog []types.College
	status, err := client.Get(ctx, "/colleges", &catalog)
	if err != nil {
		return stats, fmt.Errorf("catalog retrieval failed: %w", err)
	}
	if status != http.StatusOK {
		return stats, fmt.Errorf("catalog retrieval failed with status %d", status)
	}
	verifier := NewVerifier(catalog, config.TopN)

	// Step 3: Generate profiles
	forms, err := generateProfiles(ctx, config.NumProfiles, stats)
	if err != nil {
		return stats, fmt.Errorf("profile generation failed: %w", err)
	}

	// Step 4: Submit concurrently and verify
	subs := submitProfiles(ctx, config, client, forms, stats)
	verifySubmissions(ctx, config, verifier, subs, stats)
	if err := verifyDeterminism(ctx, client, subs, config.Repeats, stats); err != nil {
		return stats, err
	}

	// Step 5: Batch round trip
	if config.BatchSize > 0 {
		n := min(config.BatchSize, len(forms))
		if err := runBatch(ctx, config, client, verifier, forms[:n], stats); err != nil {
			return stats, err
		}
	}

	// Step 6: Save profiles to file
	if config.OutputFile != "" {
		if err := saveProfilesToFile(ctx, config.OutputFile, forms); err != nil {
			logger.Get().Warn(ctx, "failed to save profiles to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d responses", ErrMismatch, stats.Mismatches)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d requests failed", stats.Failed)
	}
	logger.Get().Info(ctx, "probe completed successfully")
	return stats, nil
}

func applyDefaults(config *Config) {
	if config.TopN <= 0 {
		config.TopN = DefaultTopN
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = DefaultBatchTimeout
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	var body map[string]string
	status, err := client.Get(ctx, "/healthz", &body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK || body["status"] != "ok" {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveProfilesToFile writes the generated forms as a JSON array.
func saveProfilesToFile(ctx context.Context, filename string, forms []types.StudentForm) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(forms, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "profiles saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("profilesGenerated", stats.ProfilesGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("determinismChecks", stats.DeterminismChecks),
		logger.Int("batchItems", stats.BatchItems),
		logger.Bool("batchReplayed", stats.BatchReplayed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
