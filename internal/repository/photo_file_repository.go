package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/snapclass/picday-api/internal/models"
)

// PhotoFileRepository handles persistence for ingested camera-card files
// and their student mappings.
type PhotoFileRepository struct {
	db *sqlx.DB
}

// NewPhotoFileRepository constructs the repository.
func NewPhotoFileRepository(db *sqlx.DB) *PhotoFileRepository {
	return &PhotoFileRepository{db: db}
}

// Insert writes a photo file row keyed by (event, file name). A conflict
// on that key means the file was already ingested in an earlier run; the
// insert becomes a no-op and Insert reports inserted=false.
func (r *PhotoFileRepository) Insert(ctx context.Context, file *models.PhotoFile) (bool, error) {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO photo_files (id, event_id, session_id, file_name, storage_url, photo_type, uploaded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (event_id, file_name) DO NOTHING
RETURNING id`
	var id string
	err := r.db.GetContext(ctx, &id, query,
		file.ID, file.EventID, file.SessionID, file.FileName,
		file.StorageURL, file.PhotoType, file.UploadedBy, file.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert photo file %s: %w", file.FileName, err)
	}
	file.ID = id
	return true, nil
}

// MapStudents links a file to every student in the matched session's
// roster. Existing pairs are skipped, so remapping is idempotent.
func (r *PhotoFileRepository) MapStudents(ctx context.Context, fileID string, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	query := `INSERT INTO photo_files_students (photo_file_id, student_id)
SELECT $1, unnest($2::text[])
ON CONFLICT (photo_file_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, fileID, pq.StringArray(studentIDs)); err != nil {
		return fmt.Errorf("map photo file students: %w", err)
	}
	return nil
}
