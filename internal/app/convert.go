package service

import (
	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/types"
)

func toCollege(c model.College) types.College {
	out := types.College{
		ID:               c.ID,
		Name:             c.Name,
		Location:         c.Location,
		Type:             c.Type,
		Rating:           c.Rating,
		Fees:             c.Fees,
		Cutoff:           c.Cutoff,
		Placement:        c.Placement,
		Courses:          append([]string{}, c.Courses...),
		MinPercentile:    c.MinPercentile,
		PreferredRegions: make([]string, len(c.PreferredRegions)),
		Streams:          make([]string, len(c.Streams)),
	}
	for i, r := range c.PreferredRegions {
		out.PreferredRegions[i] = string(r)
	}
	for i, s := range c.Streams {
		out.Streams[i] = string(s)
	}
	return out
}

func toColleges(cs []model.College) []types.College {
	out := make([]types.College, len(cs))
	for i, c := range cs {
		out[i] = toCollege(c)
	}
	return out
}

func toRecommendation(p model.StudentProfile, scored []model.ScoredCollege) types.Recommendation {
	rec := types.Recommendation{
		Student:  p.Name,
		Stream:   string(p.Stream),
		Region:   string(p.Region),
		Count:    len(scored),
		Colleges: make([]types.ScoredCollege, len(scored)),
	}
	for i, sc := range scored {
		rec.Colleges[i] = types.ScoredCollege{
			College: toCollege(sc.College),
			Match:   sc.Match,
			Tier:    string(sc.Tier),
			Breakdown: types.Breakdown{
				Qualification: round2(sc.Breakdown.Qualification),
				Performance:   round2(sc.Breakdown.Performance),
				Region:        sc.Breakdown.Region,
				Consistency:   sc.Breakdown.Consistency,
				Raw:           round2(sc.Breakdown.Raw),
				Qualified:     sc.Breakdown.Qualified,
			},
		}
	}
	return rec
}
