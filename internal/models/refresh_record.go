package models

import (
	"time"

	"gorm.io/gorm"
)

// Refresh cycle outcomes stored in the journal.
const (
	OutcomeOK         = "ok"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
)

// RefreshRecord is one refresh cycle in the journal.
type RefreshRecord struct {
	gorm.Model
	Generation uint64    `json:"generation" gorm:"index"`
	StartedAt  time.Time `json:"started_at" gorm:"index"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome" gorm:"index"`
	Status     string    `json:"status"`
	OfferCount int       `json:"offer_count"`
	PairCount  int       `json:"pair_count"`
	Fallbacks  string    `json:"fallbacks,omitempty"` // comma separated endpoint names
	Error      string    `json:"error,omitempty"`
}
