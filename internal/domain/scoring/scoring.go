// Package scoring ranks colleges by their fit for a student profile.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/collegepath/internal/domain/model"
)

// DefaultTopN is how many colleges Recommend returns unless configured.
const DefaultTopN = 6

// Component weights.
const (
	qualifiedWeight   = 50.0
	underqualWeight   = 40.0
	qualificationCap  = 100.0
	performanceCap    = 25.0
	preferredRegion   = 15.0
	otherRegion       = 7.0
	consistentBonus   = 10.0
	inconsistentBonus = 5.0
	consistencyWindow = 5.0
	maxMatch          = 100.0
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithTopN sets how many colleges Recommend returns at most.
func WithTopN(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.topN = n
		}
	}
}

// Scorer computes matches. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	topN int
}

// NewScorer creates a Scorer returning DefaultTopN colleges unless configured.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{topN: DefaultTopN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopN returns the configured result limit.
func (s *Scorer) TopN() int { return s.topN }

var defaultScorer = NewScorer() //nolint:gochecknoglobals // immutable

// Recommend ranks colleges with the default top-6 limit.
func Recommend(p model.StudentProfile, colleges []model.College) ([]model.ScoredCollege, error) {
	return defaultScorer.Recommend(p, colleges)
}

// Recommend keeps the colleges accepting the student's stream, scores them,
// sorts by match descending with ties in input order, and truncates to TopN.
// Neither the profile nor the colleges are modified.
func (s *Scorer) Recommend(p model.StudentProfile, colleges []model.College) ([]model.ScoredCollege, error) {
	if err := checkFinite(p); err != nil {
		return nil, err
	}

	out := make([]model.ScoredCollege, 0, len(colleges))
	for _, c := range colleges {
		if !c.Accepts(p.Stream) {
			continue
		}
		b := Score(p, c)
		m := Match(b)
		out = append(out, model.ScoredCollege{
			College:   c,
			Match:     m,
			Tier:      model.TierFor(m),
			Breakdown: b,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Match > out[j].Match })

	if len(out) > s.topN {
		out = out[:s.topN]
	}
	return out, nil
}

// Score computes the component scores of one college for a profile. The
// qualification component is not capped at 50: an over-qualified student
// can push the raw sum past 100.
func Score(p model.StudentProfile, c model.College) model.Breakdown {
	var b model.Breakdown

	ratio := p.Percentile / c.MinPercentile
	if p.Percentile >= c.MinPercentile {
		b.Qualified = true
		b.Qualification = math.Min(qualificationCap, ratio*qualifiedWeight)
	} else {
		b.Qualification = ratio * underqualWeight
	}

	b.Performance = math.Min(performanceCap, p.FinalMarks/100*performanceCap)

	if c.Prefers(p.Region) {
		b.Region = preferredRegion
	} else {
		b.Region = otherRegion
	}

	if math.Abs(p.FinalMarks-p.PriorMarks) <= consistencyWindow {
		b.Consistency = consistentBonus
	} else {
		b.Consistency = inconsistentBonus
	}

	b.Raw = b.Qualification + b.Performance + b.Region + b.Consistency
	return b
}

// Match clamps the raw sum to [0,100] and rounds it.
func Match(b model.Breakdown) int {
	return int(math.Round(math.Max(0, math.Min(maxMatch, b.Raw))))
}

func checkFinite(p model.StudentProfile) error {
	vals := [...]struct {
		name string
		v    float64
	}{
		{"prior marks", p.PriorMarks},
		{"final marks", p.FinalMarks},
		{"percentile", p.Percentile},
	}
	for _, f := range vals {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrNonFinite, f.name, f.v)
		}
	}
	return nil
}
