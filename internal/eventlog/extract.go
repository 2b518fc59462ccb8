package eventlog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"aat-go/internal/models"
)

// requiredColumns must all be present for a file to be tagged by stimulus.
var requiredColumns = []string{ColEventType, ColTimeStamp, ColEventData, ColDetail1}

// Streams holds the two time-ordered views of one log.
type Streams struct {
	Positions []models.PositionSample
	Stimuli   []models.StimulusEvent
	Left      []models.StimulusEvent
	Right     []models.StimulusEvent

	BadTimestamps int // rows of interest whose TimeStamp did not parse
	BadPositions  int // position rows whose EventData did not parse
}

// Extract splits a canonical table into position samples and stimulus
// changes, both sorted ascending by timestamp with ties kept in row order.
func Extract(t *Table) (*Streams, error) {
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := t.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, newError(KindMissingColumn, "extract",
			"%s absent, table has %d columns: %w", strings.Join(missing, ", "), len(t.Columns), ErrMissingColumn)
	}

	s := &Streams{}
	for _, rec := range t.Records() {
		switch rec.EventType {
		case models.EventPlayerPosition:
			ts, ok := parseFloat(rec.TimeStamp)
			if !ok {
				s.BadTimestamps++
				continue
			}
			pos, ok := parseFloat(rec.EventData)
			if !ok {
				s.BadPositions++
				continue
			}
			s.Positions = append(s.Positions, models.PositionSample{Timestamp: ts, Position: pos})

		case models.EventExecuted:
			side, ok := models.ParseSide(rec.EventData)
			if !ok {
				continue
			}
			ts, ok := parseFloat(rec.TimeStamp)
			if !ok {
				s.BadTimestamps++
				continue
			}
			detail := rec.Detail1()
			s.Stimuli = append(s.Stimuli, models.StimulusEvent{
				Timestamp: ts,
				Side:      side,
				Category:  models.Classify(detail),
				Detail:    detail,
			})
		}
	}

	sort.SliceStable(s.Positions, func(i, j int) bool {
		return s.Positions[i].Timestamp < s.Positions[j].Timestamp
	})
	sort.SliceStable(s.Stimuli, func(i, j int) bool {
		return s.Stimuli[i].Timestamp < s.Stimuli[j].Timestamp
	})
	for _, ev := range s.Stimuli {
		if ev.Side == models.SideLeft {
			s.Left = append(s.Left, ev)
		} else {
			s.Right = append(s.Right, ev)
		}
	}
	return s, nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
