// Package summary computes grouped descriptive statistics over the approach
// and speed tables.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"aat-go/internal/models"
)

// GroupStats describes one group of observations. Std is nil when the group
// has fewer than two values.
type GroupStats struct {
	Direction models.Direction `json:"direction,omitempty"`
	ImageType models.Category  `json:"imageType"`
	Count     int              `json:"count"`
	Mean      float64          `json:"mean"`
	Std       *float64         `json:"std"`
	Min       float64          `json:"min"`
	Q25       float64          `json:"q25"`
	Median    float64          `json:"median"`
	Q75       float64          `json:"q75"`
	Max       float64          `json:"max"`
}

type groupKey struct {
	direction models.Direction
	imageType models.Category
}

// DescribeApproach groups distances by image type.
func DescribeApproach(obs []models.ApproachObservation) []GroupStats {
	groups := make(map[groupKey][]float64)
	for _, o := range obs {
		k := groupKey{imageType: o.ImageType}
		groups[k] = append(groups[k], o.Distance)
	}
	return describeGroups(groups)
}

// DescribeSpeed groups speeds by direction and image type.
func DescribeSpeed(obs []models.SpeedObservation) []GroupStats {
	groups := make(map[groupKey][]float64)
	for _, o := range obs {
		k := groupKey{direction: o.Direction, imageType: o.ImageType}
		groups[k] = append(groups[k], o.Speed)
	}
	return describeGroups(groups)
}

func describeGroups(groups map[groupKey][]float64) []GroupStats {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].direction != keys[j].direction {
			return keys[i].direction < keys[j].direction
		}
		return keys[i].imageType < keys[j].imageType
	})

	out := make([]GroupStats, 0, len(keys))
	for _, k := range keys {
		gs := Describe(groups[k])
		gs.Direction = k.direction
		gs.ImageType = k.imageType
		out = append(out, gs)
	}
	return out
}

// Describe computes count, mean, sample standard deviation, extremes and
// quartiles of values. Quartiles interpolate linearly between order
// statistics at rank p*(n-1).
func Describe(values []float64) GroupStats {
	gs := GroupStats{Count: len(values)}
	if len(values) == 0 {
		return gs
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	gs.Mean = mean
	if len(sorted) > 1 {
		gs.Std = &std
	}
	gs.Min = floats.Min(sorted)
	gs.Max = floats.Max(sorted)
	gs.Q25 = quantile(sorted, 0.25)
	gs.Median = quantile(sorted, 0.5)
	gs.Q75 = quantile(sorted, 0.75)
	return gs
}

// quantile expects sorted input. gonum's stat.Quantile only offers the
// empirical and p*n interpolations, neither matches the p*(n-1) convention
// used by the published reports.
func quantile(sorted []float64, p float64) float64 {
	rank := p * float64(len(sorted)-1)
	lo := math.Floor(rank)
	hi := math.Ceil(rank)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := rank - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}
