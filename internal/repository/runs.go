// internal/repository/runs.go
package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"aat-go/internal/analysis"
	"aat-go/internal/database"
	"aat-go/internal/models"
)

// NewRun maps a batch result onto the stored models. Failed files are kept
// so a stored run still shows why they contributed nothing.
func NewRun(batch *analysis.BatchResult) *models.AnalysisRun {
	run := &models.AnalysisRun{
		ID:      batch.RunID,
		Outcome: string(batch.Outcome),
		Files:   make([]models.FileSession, 0, len(batch.Files)),
	}
	for _, f := range batch.Files {
		session := models.FileSession{
			Name:              f.Name,
			Encoding:          f.Stats.Encoding,
			Status:            "ok",
			DroppedLines:      f.Stats.DroppedLines,
			SkippedRows:       f.Stats.SkippedRows,
			UnresolvedSamples: f.Stats.UnresolvedSamples,
			Approach:          append([]models.ApproachObservation(nil), f.Approach...),
			Speed:             append([]models.SpeedObservation(nil), f.Speed...),
		}
		if f.Failure != nil {
			session.Status = "failed"
			session.ErrorKind = f.Failure.KindName
			session.ErrorMessage = f.Failure.Message
		}
		for _, w := range f.Warnings {
			session.Warnings = append(session.Warnings, w.KindName+": "+w.Message)
		}
		run.Files = append(run.Files, session)
	}
	return run
}

// SaveRun stores a run with its files and observations in one transaction.
func SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
}

// GetRun loads a stored run with every file and observation.
func GetRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := database.DB.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Files.Approach").
		Preload("Files.Speed").
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GroupAggregate is a per-group aggregate computed by the database.
type GroupAggregate struct {
	Direction string  `json:"direction,omitempty"`
	ImageType string  `json:"imageType"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

const approachGroupsQuery = `
	SELECT
		a.image_type AS image_type,
		COUNT(*) AS count,
		AVG(a.distance) AS mean,
		MIN(a.distance) AS min,
		MAX(a.distance) AS max
	FROM approach_observations a
	JOIN file_sessions f ON a.file_session_id = f.id
	WHERE f.run_id = ? AND f.deleted_at IS NULL
	GROUP BY a.image_type
	ORDER BY a.image_type;
`

const speedGroupsQuery = `
	SELECT
		s.direction AS direction,
		s.image_type AS image_type,
		COUNT(*) AS count,
		AVG(s.speed) AS mean,
		MIN(s.speed) AS min,
		MAX(s.speed) AS max
	FROM speed_observations s
	JOIN file_sessions f ON s.file_session_id = f.id
	WHERE f.run_id = ? AND f.deleted_at IS NULL
	GROUP BY s.direction, s.image_type
	ORDER BY s.direction, s.image_type;
`

// GetRunAggregates groups a stored run's observations the same way the
// combined report does.
func GetRunAggregates(ctx context.Context, runID string) (approach, speed []GroupAggregate, err error) {
	db := database.DB.WithContext(ctx)
	if err = db.Raw(strings.TrimSpace(approachGroupsQuery), runID).Scan(&approach).Error; err != nil {
		return nil, nil, err
	}
	if err = db.Raw(strings.TrimSpace(speedGroupsQuery), runID).Scan(&speed).Error; err != nil {
		return nil, nil, err
	}
	return approach, speed, nil
}

// DeleteRunsBefore hard-deletes runs created before cutoff together with their
// files and observations. It returns the number of runs removed.
func DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runs := tx.Model(&models.AnalysisRun{}).Select("id").Where("created_at < ?", cutoff)
		files := tx.Unscoped().Model(&models.FileSession{}).Select("id").Where("run_id IN (?)", runs)

		if err := tx.Where("file_session_id IN (?)", files).Delete(&models.ApproachObservation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_session_id IN (?)", files).Delete(&models.SpeedObservation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("run_id IN (?)", runs).Delete(&models.FileSession{}).Error; err != nil {
			return err
		}
		res := tx.Where("created_at < ?", cutoff).Delete(&models.AnalysisRun{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}
