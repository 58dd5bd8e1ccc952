package probe

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/scoring"
	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
)

// Verifier checks server answers against the reference scorer run on the
// server's own catalog.
type Verifier struct {
	colleges []model.College
	scorer   *scoring.Scorer
}

// NewVerifier builds a Verifier for the given catalog and result limit.
func NewVerifier(catalog []types.College, topN int) *Verifier {
	cs := make([]model.College, len(catalog))
	for i, c := range catalog {
		cs[i] = toModel(c)
	}
	return &Verifier{colleges: cs, scorer: scoring.NewScorer(scoring.WithTopN(topN))}
}

// Verify checks the testable properties of one recommendation: matches in
// [0,100], descending order, at most topN entries, every college accepting
// the stream, and the exact ids and matches of the reference scorer.
func (v *Verifier) Verify(form types.StudentForm, rec types.Recommendation) error {
	p, err := profile.Parse(form)
	if err != nil {
		return fmt.Errorf("generated profile rejected locally: %w", err)
	}
	want, err := v.scorer.Recommend(p, v.colleges)
	if err != nil {
		return err
	}

	if rec.Count != len(rec.Colleges) {
		return fmt.Errorf("%w: count %d but %d colleges", ErrMismatch, rec.Count, len(rec.Colleges))
	}
	if len(rec.Colleges) > v.scorer.TopN() {
		return fmt.Errorf("%w: %d colleges exceed limit %d", ErrMismatch, len(rec.Colleges), v.scorer.TopN())
	}
	for i, c := range rec.Colleges {
		if c.Match < 0 || c.Match > 100 {
			return fmt.Errorf("%w: match %d out of bounds", ErrMismatch, c.Match)
		}
		if i > 0 && rec.Colleges[i-1].Match < c.Match {
			return fmt.Errorf("%w: position %d ranks above a higher match", ErrMismatch, i)
		}
		if !slices.Contains(c.Streams, string(p.Stream)) {
			return fmt.Errorf("%w: college %s does not accept %s", ErrMismatch, c.ID, p.Stream)
		}
	}
	if len(want) != len(rec.Colleges) {
		return fmt.Errorf("%w: %d colleges, reference has %d", ErrMismatch, len(rec.Colleges), len(want))
	}
	for i, w := range want {
		got := rec.Colleges[i]
		if got.ID != w.ID || got.Match != w.Match {
			return fmt.Errorf("%w: position %d is %s/%d, reference %s/%d",
				ErrMismatch, i, got.ID, got.Match, w.ID, w.Match)
		}
	}
	return nil
}

// verifySubmissions runs Verify over every successful submission.
func verifySubmissions(ctx context.Context, config *Config, v *Verifier, subs []Submission, stats *Stats) {
	reported := 0
	for _, s := range subs {
		if s.Err != nil || s.Status != http.StatusOK {
			continue
		}
		if err := v.Verify(s.Form, s.Recommendation); err != nil {
			stats.Mismatches++
			if config.Verbose || reported < maxReportedMismatch {
				reported++
				logger.Get().Warn(ctx, "verification failed",
					logger.String("student", s.Form.Name), logger.Error(err))
			}
			continue
		}
		stats.Verified++
	}
	logger.Get().Info(ctx, "verification completed",
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches))
}

// verifyDeterminism re-submits the first n forms and expects identical answers.
func verifyDeterminism(ctx context.Context, client *HTTPClient, subs []Submission, n int, stats *Stats) error {
	for _, s := range subs {
		if n == 0 {
			break
		}
		if s.Err != nil || s.Status != http.StatusOK {
			continue
		}
		n--

		var again types.Recommendation
		status, err := client.Post(ctx, "/recommendations", s.Form, &again)
		if err != nil {
			return err
		}
		stats.DeterminismChecks++
		if status != http.StatusOK || !sameRanking(s.Recommendation, again) {
			stats.Mismatches++
			return fmt.Errorf("%w: repeated request for %s changed the answer", ErrMismatch, s.Form.Name)
		}
	}
	return nil
}

func sameRanking(a, b types.Recommendation) bool {
	if len(a.Colleges) != len(b.Colleges) {
		return false
	}
	for i := range a.Colleges {
		if a.Colleges[i].ID != b.Colleges[i].ID || a.Colleges[i].Match != b.Colleges[i].Match {
			return false
		}
	}
	return true
}

func toModel(c types.College) model.College {
	out := model.College{
		ID:               c.ID,
		Name:             c.Name,
		Location:         c.Location,
		Type:             c.Type,
		Rating:           c.Rating,
		Fees:             c.Fees,
		Cutoff:           c.Cutoff,
		Placement:        c.Placement,
		Courses:          c.Courses,
		MinPercentile:    c.MinPercentile,
		PreferredRegions: make([]model.Region, len(c.PreferredRegions)),
		Streams:          make([]model.Stream, len(c.Streams)),
	}
	for i, r := range c.PreferredRegions {
		out.PreferredRegions[i] = model.Region(r)
	}
	for i, s := range c.Streams {
		out.Streams[i] = model.Stream(s)
	}
	return out
}
