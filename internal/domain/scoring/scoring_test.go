package scoring_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/collegepath/internal/domain/catalog"
	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func iitDelhi() model.College {
	c, err := catalog.Default().ByID("1")
	if err != nil {
		panic(err)
	}
	return c
}

func strongScience(region model.Region) model.StudentProfile {
	return model.StudentProfile{
		PriorMarks: 93,
		FinalMarks: 95,
		Percentile: 99.5,
		Stream:     model.StreamScience,
		Region:     region,
	}
}

func ids(scored []model.ScoredCollege) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.ID
	}
	return out
}

func TestScoreScenarios(t *testing.T) {
	Convey("Given IIT Delhi with a 99 minimum percentile", t, func() {
		iit := iitDelhi()

		Convey("When a strong science student from a preferred region is scored", func() {
			got, err := scoring.Recommend(strongScience("delhi"), []model.College{iit})

			Convey("Then the match is 99", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].Match, ShouldEqual, 99)
				So(got[0].Tier, ShouldEqual, model.TierExcellent)
				So(got[0].Breakdown.Qualification, ShouldAlmostEqual, 50.2525, 0.0001)
				So(got[0].Breakdown.Performance, ShouldEqual, 23.75)
				So(got[0].Breakdown.Region, ShouldEqual, 15.0)
				So(got[0].Breakdown.Consistency, ShouldEqual, 10.0)
				So(got[0].Breakdown.Qualified, ShouldBeTrue)
			})
		})

		Convey("When the same student is from a non-preferred region", func() {
			got, err := scoring.Recommend(strongScience("maharashtra"), []model.College{iit})

			Convey("Then the match is 91", func() {
				So(err, ShouldBeNil)
				So(got[0].Match, ShouldEqual, 91)
				So(got[0].Breakdown.Region, ShouldEqual, 7.0)
			})
		})

		Convey("When the percentile is below the minimum", func() {
			p := strongScience("delhi")
			p.Percentile = 80
			b := scoring.Score(p, iit)

			Convey("Then qualification earns partial credit", func() {
				So(b.Qualified, ShouldBeFalse)
				So(b.Qualification, ShouldAlmostEqual, 32.3232, 0.0001)
			})
		})

		Convey("When a commerce student is matched against science-only colleges", func() {
			p := strongScience("delhi")
			p.Stream = model.StreamCommerce
			got, err := scoring.Recommend(p, []model.College{iit})

			Convey("Then the result is empty without an error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When final and prior marks differ by more than five points", func() {
			p := strongScience("delhi")
			p.PriorMarks = 89.9
			b := scoring.Score(p, iit)

			Convey("Then the consistency bonus drops to 5", func() {
				So(b.Consistency, ShouldEqual, 5.0)
			})
		})

		Convey("When final and prior marks differ by exactly five points", func() {
			p := strongScience("delhi")
			p.PriorMarks = 90
			b := scoring.Score(p, iit)

			Convey("Then the full bonus is kept", func() {
				So(b.Consistency, ShouldEqual, 10.0)
			})
		})
	})
}

func TestRecommendAgainstCatalog(t *testing.T) {
	Convey("Given the full catalog and a strong science student from delhi", t, func() {
		colleges := catalog.Default().All()
		p := strongScience("delhi")

		Convey("When recommendations are computed", func() {
			got, err := scoring.Recommend(p, colleges)

			Convey("Then all six science colleges are ranked with ties in catalog order", func() {
				So(err, ShouldBeNil)
				So(ids(got), ShouldResemble, []string{"4", "8", "1", "5", "7", "6"})
				So(got[0].Match, ShouldEqual, 100)
				So(got[0].Breakdown.Raw, ShouldBeGreaterThan, 100.0)
			})
		})

		Convey("When the scorer is limited to two results", func() {
			got, err := scoring.NewScorer(scoring.WithTopN(2)).Recommend(p, colleges)

			Convey("Then only the first two are returned", func() {
				So(err, ShouldBeNil)
				So(ids(got), ShouldResemble, []string{"4", "8"})
			})
		})

		Convey("When a non-positive limit is configured", func() {
			s := scoring.NewScorer(scoring.WithTopN(0))

			Convey("Then the default is kept", func() {
				So(s.TopN(), ShouldEqual, scoring.DefaultTopN)
			})
		})
	})
}

func TestRecommendGuards(t *testing.T) {
	Convey("Given profiles with non-finite numbers", t, func() {
		for _, p := range []model.StudentProfile{
			{PriorMarks: math.NaN(), FinalMarks: 90, Percentile: 90, Stream: model.StreamArts},
			{PriorMarks: 90, FinalMarks: math.Inf(1), Percentile: 90, Stream: model.StreamArts},
			{PriorMarks: 90, FinalMarks: 90, Percentile: math.Inf(-1), Stream: model.StreamArts},
		} {
			got, err := scoring.Recommend(p, catalog.Default().All())
			So(got, ShouldBeNil)
			So(errors.Is(err, scoring.ErrNonFinite), ShouldBeTrue)
		}
	})

	Convey("Given a finite but out-of-range profile", t, func() {
		p := model.StudentProfile{PriorMarks: -500, FinalMarks: -400, Percentile: -300, Stream: model.StreamArts}
		got, err := scoring.Recommend(p, catalog.Default().All())

		Convey("Then it is scored and clamped to zero", func() {
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 4)
			for _, sc := range got {
				So(sc.Match, ShouldEqual, 0)
				So(sc.Breakdown.Raw, ShouldBeLessThan, 0.0)
			}
		})
	})
}

func TestRecommendProperties(t *testing.T) {
	Convey("Given random profiles against the catalog", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data
		colleges := catalog.Default().All()
		snapshot := catalog.Default().All()
		streams := model.Streams()
		regions := model.Regions()

		for i := 0; i < 500; i++ {
			p := model.StudentProfile{
				PriorMarks: rng.Float64() * 100,
				FinalMarks: rng.Float64() * 100,
				Percentile: rng.Float64() * 100,
				Stream:     streams[rng.Intn(len(streams))],
				Region:     regions[rng.Intn(len(regions))],
			}
			before := p

			got, err := scoring.Recommend(p, colleges)
			again, _ := scoring.Recommend(p, colleges)
			So(err, ShouldBeNil)

			// deterministic
			So(again, ShouldResemble, got)
			// profile untouched
			So(p, ShouldResemble, before)

			accepting := 0
			for _, c := range colleges {
				if c.Accepts(p.Stream) {
					accepting++
				}
			}
			So(len(got), ShouldEqual, min(scoring.DefaultTopN, accepting))

			for j, sc := range got {
				So(sc.Accepts(p.Stream), ShouldBeTrue)
				So(sc.Match, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.Tier, ShouldEqual, model.TierFor(sc.Match))
				if j > 0 {
					So(got[j-1].Match, ShouldBeGreaterThanOrEqualTo, sc.Match)
				}
			}
		}

		Convey("Then the catalog slice is never modified", func() {
			So(colleges, ShouldResemble, snapshot)
		})
	})
}
