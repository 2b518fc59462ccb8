package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ApproachObservation is one turning point: how far from center the player got
// before reversing.
type ApproachObservation struct {
	ID            uint     `json:"-" gorm:"primaryKey"`
	FileSessionID uint     `json:"-" gorm:"index"`
	ImageType     Category `json:"imageType" yaml:"image_type"`
	Distance      float64  `json:"distance" yaml:"distance"`
}

// SpeedObservation is the movement speed between two consecutive samples.
type SpeedObservation struct {
	ID            uint      `json:"-" gorm:"primaryKey"`
	FileSessionID uint      `json:"-" gorm:"index"`
	Speed         float64   `json:"speed" yaml:"speed"`
	Direction     Direction `json:"direction" yaml:"direction"`
	ImageType     Category  `json:"imageType" yaml:"image_type"`
}

// AnalysisRun is a stored batch of uploaded logs.
type AnalysisRun struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Outcome   string
	Files     []FileSession `gorm:"foreignKey:RunID"`
	CreatedAt time.Time
}

// FileSession holds what one uploaded log contributed to a run.
type FileSession struct {
	gorm.Model
	RunID             string `gorm:"type:uuid;index"`
	Name              string
	Encoding          string
	Status            string // "ok" or "failed"
	ErrorKind         string
	ErrorMessage      string
	Warnings          pq.StringArray `gorm:"type:text[]"`
	DroppedLines      int
	SkippedRows       int
	UnresolvedSamples int
	Approach          []ApproachObservation `gorm:"foreignKey:FileSessionID"`
	Speed             []SpeedObservation    `gorm:"foreignKey:FileSessionID"`
}
