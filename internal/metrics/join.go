package metrics

import (
	"aat-go/internal/models"
)

// JoinAsOf annotates every position sample with the stimulus event that was
// most recently at or before it. Both inputs must be sorted ascending by
// timestamp. Samples recorded before the first event stay unresolved.
//
// The sweep is a two-pointer merge: each event is visited once.
func JoinAsOf(samples []models.PositionSample, events []models.StimulusEvent) []models.JoinedSample {
	joined := make([]models.JoinedSample, len(samples))
	next := 0 // first event not yet applied
	var current *models.StimulusEvent

	for i, sample := range samples {
		for next < len(events) && events[next].Timestamp <= sample.Timestamp {
			current = &events[next]
			next++
		}
		joined[i] = models.JoinedSample{PositionSample: sample}
		if current != nil {
			joined[i].Category = current.Category
			joined[i].Resolved = true
		}
	}
	return joined
}

// CountUnresolved returns how many samples have no preceding stimulus.
func CountUnresolved(samples []models.JoinedSample) int {
	n := 0
	for _, s := range samples {
		if !s.Resolved {
			n++
		}
	}
	return n
}
