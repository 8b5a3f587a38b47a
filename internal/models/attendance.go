package models

import (
	"time"

	"github.com/lib/pq"
)

// AttendanceStatus marks whether the roster was photographed.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
)

// AttendanceRecord is the ledger row derived from a synced session.
// Exactly one record exists per (event, session) regardless of how many
// times the session is resynced.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	EventID       string           `db:"event_id" json:"eventId"`
	SessionID     string           `db:"session_id" json:"sessionId"`
	StudentIDs    pq.StringArray   `db:"student_ids" json:"studentIds"`
	Status        AttendanceStatus `db:"status" json:"status"`
	RecordedBy    string           `db:"recorded_by" json:"recordedBy"`
	RecordedAt    time.Time        `db:"recorded_at" json:"recordedAt"`
	ScanCodeToken *string          `db:"scan_code_token" json:"scanCodeToken,omitempty"`
	PhotoType     PhotoType        `db:"photo_type" json:"photoType"`
}
