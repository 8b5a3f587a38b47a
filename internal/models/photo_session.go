package models

import (
	"time"

	"github.com/lib/pq"
)

// PhotoSession is one logical shot event recorded by a photographer. At
// most one session exists per (event, scan code) when a code is present;
// ad hoc sessions carry a NULL code and are never deduplicated.
type PhotoSession struct {
	ID             string         `db:"id" json:"id"`
	EventID        string         `db:"event_id" json:"eventId"`
	ScanCodeID     *string        `db:"scan_code_id" json:"scanCodeId,omitempty"`
	PhotographerID string         `db:"photographer_id" json:"photographerId"`
	PhotoType      PhotoType      `db:"photo_type" json:"photoType"`
	StudentIDs     pq.StringArray `db:"student_ids" json:"studentIds"`
	CapturedAt     time.Time      `db:"captured_at" json:"capturedAt"`
	Uploaded       bool           `db:"uploaded" json:"uploaded"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// SessionAnchor is the slice of a session the timestamp matcher needs: its
// identity, roster and capture instant.
type SessionAnchor struct {
	SessionID  string         `db:"id"`
	PhotoType  PhotoType      `db:"photo_type"`
	StudentIDs pq.StringArray `db:"student_ids"`
	CapturedAt time.Time      `db:"captured_at"`
}
