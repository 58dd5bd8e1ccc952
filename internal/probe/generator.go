package probe

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
)

const randomFloatDivisor = 1000000

// Score bands for generated students.
const (
	caseWeak = iota
	caseAverage
	caseStrong
	caseElite
	caseEdge
	numCases
)

type band struct {
	pctMin, pctRange     float64
	marksMin, marksRange float64
}

var bands = map[int64]band{ //nolint:gochecknoglobals // fixed generation table
	caseWeak:    {pctMin: 30, pctRange: 40, marksMin: 40, marksRange: 25},
	caseAverage: {pctMin: 60, pctRange: 30, marksMin: 55, marksRange: 25},
	caseStrong:  {pctMin: 85, pctRange: 14, marksMin: 75, marksRange: 20},
	caseElite:   {pctMin: 97, pctRange: 3, marksMin: 90, marksRange: 10},
	caseEdge:    {pctMin: 0, pctRange: 100, marksMin: 0, marksRange: 100},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateProfiles creates n valid student forms spread over the score bands.
func generateProfiles(ctx context.Context, n int, stats *Stats) ([]types.StudentForm, error) {
	logger.Get().Info(ctx, "generating student profiles", logger.Int("count", n))

	forms := make([]types.StudentForm, n)
	for i := range forms {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during profile generation: %w", err)
		}
		forms[i] = generateSingleProfile(i)
	}

	stats.ProfilesGenerated = len(forms)
	return forms, nil
}

// generateSingleProfile builds one form. Marks of both years stay within
// ten points of each other so both consistency outcomes show up.
func generateSingleProfile(index int) types.StudentForm {
	b := bands[int64(randomIndex(numCases))]
	streams := model.Streams()
	regions := model.Regions()

	prior := clamp(b.marksMin + getRandomFloat()*b.marksRange)
	final := clamp(prior + (getRandomFloat()*20 - 10))
	pct := clamp(b.pctMin + getRandomFloat()*b.pctRange)

	return types.StudentForm{
		Name:       "student-" + strconv.Itoa(index),
		State:      string(regions[randomIndex(len(regions))]),
		Stream:     string(streams[randomIndex(len(streams))]),
		Marks10th:  formatNumber(prior),
		Marks12th:  formatNumber(final),
		Percentile: formatNumber(pct),
	}
}

func formatNumber(v float64) types.FormValue {
	return types.FormValue(strconv.FormatFloat(v, 'f', 2, 64))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
