package model

// College is one entry of the static catalog.
type College struct {
	ID               string
	Name             string
	Location         string
	Type             string  // "Government" or "Private"
	Rating           float64 // 0..5
	Fees             string
	Cutoff           string
	Placement        string
	Courses          []string
	MinPercentile    float64 // > 0
	PreferredRegions []Region
	Streams          []Stream // non-empty
}

// Accepts reports whether the college admits students of stream s.
func (c College) Accepts(s Stream) bool {
	for _, st := range c.Streams {
		if st == s {
			return true
		}
	}
	return false
}

// Prefers reports whether r is one of the college's preferred regions.
func (c College) Prefers(r Region) bool {
	for _, pr := range c.PreferredRegions {
		if pr == r {
			return true
		}
	}
	return false
}

// Breakdown holds the per-component scores behind a match.
type Breakdown struct {
	Qualification float64 // entrance percentile vs. college minimum
	Performance   float64 // final-year marks, capped at 25
	Region        float64 // 15 preferred, 7 otherwise
	Consistency   float64 // 10 when final and prior marks are within 5 points
	Raw           float64 // sum before clamping
	Qualified     bool    // percentile >= minimum
}

// Tier buckets a match for display.
type Tier string

// Match tiers.
const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
)

// TierFor maps a match percentage to its tier.
func TierFor(match int) Tier {
	switch {
	case match >= 90:
		return TierExcellent
	case match >= 75:
		return TierGood
	default:
		return TierFair
	}
}

// ScoredCollege is a college with its computed fit for one profile.
type ScoredCollege struct {
	College
	Match     int // 0..100
	Tier      Tier
	Breakdown Breakdown
}
