package metrics

import (
	"math"

	"aat-go/internal/models"
)

// Observations is everything derived from one joined sample stream.
type Observations struct {
	Approach []models.ApproachObservation
	Speed    []models.SpeedObservation

	Reversals int // direction changes seen, tagged or not
	// Observations that were dropped because the sample they would be
	// tagged from had no preceding stimulus.
	UnresolvedApproach int
	UnresolvedSpeed    int
	ZeroDeltaPairs     int // consecutive samples sharing a timestamp
}

// Analyze walks the time-ordered joined samples once. A change of movement
// direction emits the position before the change as an approach distance; every
// pair of samples with a non-zero time delta emits a speed.
func Analyze(samples []models.JoinedSample) *Observations {
	obs := &Observations{
		Approach: []models.ApproachObservation{},
		Speed:    []models.SpeedObservation{},
	}
	if len(samples) < 2 {
		return obs
	}

	var (
		prevDirection models.Direction
		hasDirection  bool
	)
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]

		direction := directionOf(prev.Position, curr.Position)

		if hasDirection && direction != prevDirection {
			obs.Reversals++
			// The turn happened at prev, tag it with what prev was moving toward.
			if category, ok := prev.ImageType(prevDirection); ok {
				obs.Approach = append(obs.Approach, models.ApproachObservation{
					ImageType: category,
					Distance:  prev.Position,
				})
			} else {
				obs.UnresolvedApproach++
			}
		}
		prevDirection, hasDirection = direction, true

		dt := curr.Timestamp - prev.Timestamp
		if dt == 0 {
			obs.ZeroDeltaPairs++
			continue
		}
		category, ok := curr.ImageType(direction)
		if !ok {
			obs.UnresolvedSpeed++
			continue
		}
		obs.Speed = append(obs.Speed, models.SpeedObservation{
			Speed:     math.Abs(curr.Position-prev.Position) / dt,
			Direction: direction,
			ImageType: category,
		})
	}
	return obs
}

// Directions returns the movement direction of every consecutive pair, the
// same classification Analyze uses.
func Directions(samples []models.JoinedSample) []models.Direction {
	if len(samples) < 2 {
		return nil
	}
	out := make([]models.Direction, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		out = append(out, directionOf(samples[i-1].Position, samples[i].Position))
	}
	return out
}

// directionOf counts an unchanged position as moving left.
func directionOf(prev, curr float64) models.Direction {
	if curr > prev {
		return models.DirectionRight
	}
	return models.DirectionLeft
}
