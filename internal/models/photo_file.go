package models

import "time"

// PhotoFile records one ingested camera-card image. Unique on
// (event, file name): a repeat of the same original name for the same
// event is a counted duplicate, never an error.
type PhotoFile struct {
	ID         string    `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"eventId"`
	SessionID  string    `db:"session_id" json:"sessionId"`
	FileName   string    `db:"file_name" json:"fileName"`
	StorageURL string    `db:"storage_url" json:"storageUrl"`
	PhotoType  PhotoType `db:"photo_type" json:"photoType"`
	UploadedBy string    `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
