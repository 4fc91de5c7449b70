package journal

import (
	"context"
	"fmt"
	"time"

	"basicswap-orderbook-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Journal persists one row per refresh cycle.
type Journal struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a Journal on an already migrated database.
func New(db *gorm.DB, logger *zap.Logger) *Journal {
	return &Journal{db: db, logger: logger.Named("journal")}
}

// Record stores rec.
func (j *Journal) Record(ctx context.Context, rec *models.RefreshRecord) error {
	if err := j.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record refresh %d: %w", rec.Generation, err)
	}
	j.logger.Debug("Refresh recorded",
		zap.Uint64("generation", rec.Generation),
		zap.String("outcome", rec.Outcome),
	)
	return nil
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.RefreshRecord, error) {
	var records []models.RefreshRecord
	if err := j.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list refreshes: %w", err)
	}
	return records, nil
}

// StatsDetail holds refresh counts for one period.
type StatsDetail struct {
	TotalCycles    int64   `json:"total_cycles"`
	FailedCycles   int64   `json:"failed_cycles"`
	FallbackCycles int64   `json:"fallback_cycles"`
	FallbackRatio  float64 `json:"fallback_ratio"`
}

// Stats is the refresh summary for the last 24 hours and for all time.
type Stats struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// Stats summarizes the journal as of now.
func (j *Journal) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var records []models.RefreshRecord
	if err := j.db.WithContext(ctx).Select("started_at", "outcome", "fallbacks").Find(&records).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to load refreshes for statistics: %w", err)
	}

	since24h := now.Add(-24 * time.Hour)
	var stats Stats
	for _, rec := range records {
		add(&stats.AllTime, rec)
		if rec.StartedAt.After(since24h) {
			add(&stats.Since24h, rec)
		}
	}
	finish(&stats.AllTime)
	finish(&stats.Since24h)
	return stats, nil
}

func add(d *StatsDetail, rec models.RefreshRecord) {
	d.TotalCycles++
	if rec.Outcome == models.OutcomeFailed {
		d.FailedCycles++
	}
	if rec.Fallbacks != "" {
		d.FallbackCycles++
	}
}

func finish(d *StatsDetail) {
	if d.TotalCycles > 0 {
		d.FallbackRatio = float64(d.FallbackCycles) / float64(d.TotalCycles)
	}
}
