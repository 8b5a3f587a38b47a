package models

import (
	"time"

	"github.com/lib/pq"
)

// ScanCode links a printed roster to a future photo session. The roster is
// authoritative and immutable once created; is_scanned transitions
// false→true exactly once and is never reset.
type ScanCode struct {
	ID             string         `db:"id" json:"id"`
	EventID        string         `db:"event_id" json:"eventId"`
	PreferenceID   *string        `db:"preference_id" json:"preferenceId,omitempty"`
	Token          string         `db:"token" json:"token"`
	PhotoType      PhotoType      `db:"photo_type" json:"photoType"`
	StudentIDs     pq.StringArray `db:"student_ids" json:"studentIds"`
	ImageURL       string         `db:"image_url" json:"imageUrl"`
	IsScanned      bool           `db:"is_scanned" json:"isScanned"`
	ScannedAt      *time.Time     `db:"scanned_at" json:"scannedAt,omitempty"`
	PhotographerID *string        `db:"photographer_id" json:"photographerId,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}
