package dto

import "time"

// SyncSession is one offline-logged session submitted by the mobile
// client. ScanCodeID is nil for ad hoc (random) sessions.
type SyncSession struct {
	ScanCodeID *string   `json:"scanCodeId"`
	PhotoType  string    `json:"photoType" validate:"required"`
	StudentIDs []string  `json:"studentIds" validate:"required,min=1"`
	CapturedAt time.Time `json:"capturedAt" validate:"required"`
}

// SyncRequest is the full offline sync payload for one device submission.
type SyncRequest struct {
	Sessions []SyncSession `json:"sessions" validate:"required,min=1,dive"`
}

// SyncResult summarises an atomic merge.
type SyncResult struct {
	EventID            string `json:"eventId"`
	TotalSessions      int    `json:"totalSessions"`
	CodesMarkedScanned int    `json:"codesMarkedScanned"`
}
