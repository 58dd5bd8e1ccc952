package probe

import (
	"time"

	"github.com/okian/collegepath/internal/domain/types"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumProfiles  int           // Number of profiles to generate and submit
	TopN         int           // Expected maximum number of recommendations
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	BatchSize    int           // Profiles sent through the batch API; 0 skips it
	PollInterval time.Duration // Delay between batch status polls
	BatchTimeout time.Duration // Give up on a batch after this long
	Repeats      int           // Profiles re-submitted to check determinism
	OutputFile   string        // Where generated profiles are saved; empty skips saving
	Verbose      bool          // Log every mismatch
}

// Submission pairs a generated form with the server's answer.
type Submission struct {
	Form           types.StudentForm
	Status         int
	Recommendation types.Recommendation
	Err            error
}

// Stats holds probe statistics.
type Stats struct {
	ProfilesGenerated int
	Submitted         int
	Successful        int
	Rejected          int
	Failed            int
	Verified          int
	Mismatches        int
	DeterminismChecks int
	BatchItems        int
	BatchReplayed     bool
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
