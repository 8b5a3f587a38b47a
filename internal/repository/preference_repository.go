package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/snapclass/picday-api/internal/models"
)

// PreferenceRepository reads parent photo preferences. Preferences are
// created by the external CRUD layer and are read-only here.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByEvent returns all preferences for an event in creation order.
func (r *PreferenceRepository) ListByEvent(ctx context.Context, eventID string) ([]models.PhotoPreference, error) {
	query := `SELECT id, event_id, parent_id, student_id, extra_student_ids, photo_type, created_at
FROM photo_preferences
WHERE event_id = $1
ORDER BY created_at, id`
	var prefs []models.PhotoPreference
	if err := r.db.SelectContext(ctx, &prefs, query, eventID); err != nil {
		return nil, fmt.Errorf("list photo preferences: %w", err)
	}
	return prefs, nil
}
