package probe

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultTopN          = 6
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultBatchTimeout  = 30 * time.Second
	PercentageMultiplier = 100
	maxReportedMismatch  = 20
)
