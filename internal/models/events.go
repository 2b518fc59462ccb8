// internal/models/events.go
package models

import "strings"

// EventType values the analyzer understands. The vocabulary in a log is open,
// every other value is ignored.
const (
	EventPlayerPosition = "Player position"
	EventExecuted       = "Event Executed"
)

// Side is the half of the screen a stimulus is shown on.
type Side string

const (
	SideLeft  Side = "Left"
	SideRight Side = "Right"
)

// ParseSide maps the EventData slot identifier of an "Event Executed" row.
func ParseSide(eventData string) (Side, bool) {
	switch eventData {
	case "LeftImage":
		return SideLeft, true
	case "RightImage":
		return SideRight, true
	}
	return "", false
}

// Direction is the sign of a position change between two samples.
type Direction string

const (
	DirectionLeft  Direction = "Left"
	DirectionRight Direction = "Right"
)

// Category classifies a displayed image.
type Category string

const (
	CategorySpider  Category = "Spider"
	CategoryNeutral Category = "Neutral"
)

// Classify derives the category from the Detail1 free text. Matching is a
// case-sensitive substring test.
func Classify(detail string) Category {
	if strings.Contains(detail, string(CategorySpider)) {
		return CategorySpider
	}
	return CategoryNeutral
}

// RawRecord is one parsed log row after column canonicalization.
type RawRecord struct {
	EventType string
	TimeStamp string
	EventData string
	Details   []string // Detail1..Detail11, only as many as the file carries
}

// Detail1 returns the stimulus description, empty when the column is absent.
func (r RawRecord) Detail1() string {
	if len(r.Details) == 0 {
		return ""
	}
	return r.Details[0]
}

// PositionSample is a player position reading.
type PositionSample struct {
	Timestamp float64
	Position  float64
}

// StimulusEvent records an image change on one side of the screen.
type StimulusEvent struct {
	Timestamp float64
	Side      Side
	Category  Category
	Detail    string
}

// JoinedSample is a PositionSample annotated with the stimulus that was
// showing when it was recorded. Detail1 only ever names one active image, so
// the left and right types are a single field.
type JoinedSample struct {
	PositionSample
	Category Category
	Resolved bool
}

// RightImageType is the category showing on the right.
func (s JoinedSample) RightImageType() (Category, bool) {
	return s.Category, s.Resolved
}

// LeftImageType is the category showing on the left.
func (s JoinedSample) LeftImageType() (Category, bool) {
	return s.Category, s.Resolved
}

// ImageType picks the side type matching a movement direction.
func (s JoinedSample) ImageType(d Direction) (Category, bool) {
	if d == DirectionRight {
		return s.RightImageType()
	}
	return s.LeftImageType()
}
