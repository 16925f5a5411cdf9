package database

import (
	"time"
)

// PreviewMetric records one successful preview generation run.
type PreviewMetric struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoFile string    `gorm:"not null" json:"video_file"`
	HWAccel   bool      `gorm:"not null" json:"hw_accel"`
	// TimeSeconds is wall-clock extraction time.
	TimeSeconds float64 `gorm:"not null" json:"time_seconds"`
	// Speed is the encode speed multiplier ffmpeg reported.
	Speed     float64   `gorm:"not null" json:"speed"`
	CreatedAt time.Time `json:"created_at"`
}
