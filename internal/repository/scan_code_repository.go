package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/snapclass/picday-api/internal/models"
)

// ScanCodeRepository handles persistence for compiled scan codes.
type ScanCodeRepository struct {
	db *sqlx.DB
}

// NewScanCodeRepository constructs the repository.
func NewScanCodeRepository(db *sqlx.DB) *ScanCodeRepository {
	return &ScanCodeRepository{db: db}
}

// CountByEvent returns how many codes already exist for an event.
func (r *ScanCodeRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM scan_codes WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("count scan codes: %w", err)
	}
	return count, nil
}

// ListByEvent returns an event's codes in creation order.
func (r *ScanCodeRepository) ListByEvent(ctx context.Context, eventID string) ([]models.ScanCode, error) {
	query := `SELECT id, event_id, preference_id, token, photo_type, student_ids, image_url,
is_scanned, scanned_at, photographer_id, created_at
FROM scan_codes
WHERE event_id = $1
ORDER BY created_at, id`
	var codes []models.ScanCode
	if err := r.db.SelectContext(ctx, &codes, query, eventID); err != nil {
		return nil, fmt.Errorf("list scan codes: %w", err)
	}
	return codes, nil
}

// InsertBatch writes a full generation run in one transaction. Row
// insertion is all-or-nothing: if any insert fails no rows are written.
func (r *ScanCodeRepository) InsertBatch(ctx context.Context, codes []models.ScanCode) error {
	if len(codes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scan code batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO scan_codes (id, event_id, preference_id, token, photo_type, student_ids, image_url, is_scanned, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`
	now := time.Now().UTC()
	for i := range codes {
		code := &codes[i]
		if code.ID == "" {
			code.ID = uuid.NewString()
		}
		if code.CreatedAt.IsZero() {
			code.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query,
			code.ID, code.EventID, code.PreferenceID, code.Token,
			code.PhotoType, code.StudentIDs, code.ImageURL, code.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert scan code %s: %w", code.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan code batch: %w", err)
	}
	committed = true
	return nil
}
