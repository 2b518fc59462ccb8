package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aat-go/internal/repository"
)

// PurgeFunc removes stored runs created before the cutoff.
type PurgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// Retention periodically removes stored runs past their retention window.
type Retention struct {
	log      *zap.Logger
	maxAge   time.Duration
	interval time.Duration
	purge    PurgeFunc
	now      func() time.Time
}

func NewRetention(log *zap.Logger, retentionDays int) *Retention {
	return &Retention{
		log:      log,
		maxAge:   time.Duration(retentionDays) * 24 * time.Hour,
		interval: time.Hour,
		purge:    repository.DeleteRunsBefore,
		now:      time.Now,
	}
}

// Start runs the retention loop in a goroutine until ctx is done. A zero
// retention window disables it.
func (r *Retention) Start(ctx context.Context) {
	if r.maxAge <= 0 {
		r.log.Info("Run retention disabled; stored runs are kept forever")
		return
	}
	r.log.Info("Starting run retention job...", zap.Duration("max_age", r.maxAge))
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
}

func (r *Retention) runOnce(ctx context.Context) {
	cutoff := r.now().UTC().Add(-r.maxAge)
	r.log.Debug("Running retention check", zap.Time("cutoff", cutoff))

	removed, err := r.purge(ctx, cutoff)
	if err != nil {
		r.log.Error("Failed to purge expired runs", zap.Error(err))
		return
	}
	if removed > 0 {
		r.log.Info("Purged expired runs", zap.Int64("runs", removed), zap.Time("cutoff", cutoff))
	}
}
