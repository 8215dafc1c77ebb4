package models

import (
	"time"

	"gorm.io/gorm"
)

// CycleRun is the durable audit record of one orchestrator invocation.
// It mirrors the summary returned to the caller so operators can review
// past cycles and their collected errors without scraping logs.
type CycleRun struct {
	gorm.Model

	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ThreadsChecked     int `gorm:"default:0" json:"threads_checked"`
	NewReplies         int `gorm:"default:0" json:"new_replies"`
	Bounces            int `gorm:"default:0" json:"bounces"`
	AIProcessed        int `gorm:"default:0" json:"ai_processed"`
	FollowupsProcessed int `gorm:"default:0" json:"followups_processed"`

	// Errors is a JSON array of per-item error strings.
	Errors string `gorm:"type:text" json:"errors"`
}
