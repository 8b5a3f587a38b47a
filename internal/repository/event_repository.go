package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/snapclass/picday-api/internal/models"
)

// EventRepository reads events owned by the external CRUD layer.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// FindByID returns an event by id. sql.ErrNoRows passes through so callers
// can map it to a not-found error.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT id, school_id, name, date FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEnrolledStudents returns the current roster for an event, ordered by
// name for stable default-code generation.
func (r *EventRepository) ListEnrolledStudents(ctx context.Context, eventID string) ([]models.Student, error) {
	query := `SELECT s.id, s.full_name
FROM students s
JOIN event_enrollments ee ON ee.student_id = s.id
WHERE ee.event_id = $1
ORDER BY s.full_name, s.id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, eventID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}
