package database

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
)

// MetricsStore is the write-once metrics sink and its read side.
type MetricsStore struct {
	db  *gorm.DB
	log hclog.Logger
}

// NewMetricsStore wraps an open database connection.
func NewMetricsStore(db *gorm.DB, log hclog.Logger) *MetricsStore {
	return &MetricsStore{db: db, log: log.Named("metrics")}
}

// RecordPreview appends one metric. It is fire-and-forget from the job's
// perspective: failures are logged here and never fail a completed job.
func (s *MetricsStore) RecordPreview(videoFile string, hwAccel bool, seconds, speed float64) error {
	metric := PreviewMetric{
		VideoFile:   videoFile,
		HWAccel:     hwAccel,
		TimeSeconds: seconds,
		Speed:       speed,
	}
	if err := s.db.Create(&metric).Error; err != nil {
		s.log.Error("failed to record metric", "video_file", videoFile, "error", err)
		return err
	}
	return nil
}

// Latest returns the most recent metrics, newest first.
func (s *MetricsStore) Latest(limit int) ([]PreviewMetric, error) {
	if limit <= 0 {
		limit = 100
	}
	var metrics []PreviewMetric
	err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&metrics).Error
	return metrics, err
}
