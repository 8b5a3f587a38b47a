package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/snapclass/picday-api/internal/models"
)

// PhotoSessionRepository reads photo sessions for the batch coordinator.
// All session writes happen inside a sync merge transaction (see
// SyncTxRunner); the coordinator only ever reads.
type PhotoSessionRepository struct {
	db *sqlx.DB
}

// NewPhotoSessionRepository constructs the repository.
func NewPhotoSessionRepository(db *sqlx.DB) *PhotoSessionRepository {
	return &PhotoSessionRepository{db: db}
}

// ListAnchors loads the match anchors for an event, ordered by capture
// instant so equal-gap ties resolve deterministically.
func (r *PhotoSessionRepository) ListAnchors(ctx context.Context, eventID string) ([]models.SessionAnchor, error) {
	query := `SELECT id, photo_type, student_ids, captured_at
FROM photo_sessions
WHERE event_id = $1
ORDER BY captured_at, id`
	var anchors []models.SessionAnchor
	if err := r.db.SelectContext(ctx, &anchors, query, eventID); err != nil {
		return nil, fmt.Errorf("list session anchors: %w", err)
	}
	return anchors, nil
}
