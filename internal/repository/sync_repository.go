package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/snapclass/picday-api/internal/models"
)

// SyncStore is the write surface available inside one merge transaction.
// Every method runs on the transaction's single pooled connection.
type SyncStore interface {
	FindScanCode(ctx context.Context, eventID, scanCodeID string) (*models.ScanCode, error)
	UpsertSessionByCode(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error)
	InsertAdHocSession(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error)
	UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error
	MarkCodesScanned(ctx context.Context, codeIDs []string, photographerID string, at time.Time) (int, error)
}

// SyncTxRunner scopes a merge to one database transaction. The transaction
// is rolled back on every exit path unless the callback succeeds and the
// commit goes through, so a partial merge is never observable.
type SyncTxRunner struct {
	db *sqlx.DB
}

// NewSyncTxRunner constructs the runner.
func NewSyncTxRunner(db *sqlx.DB) *SyncTxRunner {
	return &SyncTxRunner{db: db}
}

// InTx runs fn against a transactional SyncStore.
func (r *SyncTxRunner) InTx(ctx context.Context, fn func(store SyncStore) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&txSyncStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync transaction: %w", err)
	}
	committed = true
	return nil
}

type txSyncStore struct {
	tx *sqlx.Tx
}

// FindScanCode loads a scan code belonging to the event. sql.ErrNoRows
// passes through for the caller to map.
func (s *txSyncStore) FindScanCode(ctx context.Context, eventID, scanCodeID string) (*models.ScanCode, error) {
	query := `SELECT id, event_id, preference_id, token, photo_type, student_ids, image_url,
is_scanned, scanned_at, photographer_id, created_at
FROM scan_codes
WHERE id = $1 AND event_id = $2`
	var code models.ScanCode
	if err := s.tx.GetContext(ctx, &code, query, scanCodeID, eventID); err != nil {
		return nil, err
	}
	return &code, nil
}

// UpsertSessionByCode inserts a session keyed by (event, scan code),
// overwriting roster, photographer, type and capture instant when the
// device resubmits an edited session for the same code.
func (s *txSyncStore) UpsertSessionByCode(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error) {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	query := `INSERT INTO photo_sessions (id, event_id, scan_code_id, photographer_id, photo_type, student_ids, captured_at, uploaded, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
ON CONFLICT (event_id, scan_code_id) WHERE scan_code_id IS NOT NULL
DO UPDATE SET photographer_id = EXCLUDED.photographer_id,
	photo_type = EXCLUDED.photo_type,
	student_ids = EXCLUDED.student_ids,
	captured_at = EXCLUDED.captured_at,
	uploaded = TRUE
RETURNING id, event_id, scan_code_id, photographer_id, photo_type, student_ids, captured_at, uploaded, created_at`
	var stored models.PhotoSession
	if err := s.tx.GetContext(ctx, &stored, query,
		session.ID, session.EventID, session.ScanCodeID, session.PhotographerID,
		session.PhotoType, session.StudentIDs, session.CapturedAt, session.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert photo session: %w", err)
	}
	return &stored, nil
}

// InsertAdHocSession always creates a new row; ad hoc sessions have no
// key to deduplicate on.
func (s *txSyncStore) InsertAdHocSession(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error) {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	query := `INSERT INTO photo_sessions (id, event_id, scan_code_id, photographer_id, photo_type, student_ids, captured_at, uploaded, created_at)
VALUES ($1, $2, NULL, $3, $4, $5, $6, TRUE, $7)
RETURNING id, event_id, scan_code_id, photographer_id, photo_type, student_ids, captured_at, uploaded, created_at`
	var stored models.PhotoSession
	if err := s.tx.GetContext(ctx, &stored, query,
		session.ID, session.EventID, session.PhotographerID,
		session.PhotoType, session.StudentIDs, session.CapturedAt, session.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert ad hoc session: %w", err)
	}
	return &stored, nil
}

// UpsertAttendance writes the ledger row keyed by (event, session); a
// resync overwrites the copied roster and timestamp in place.
func (s *txSyncStore) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `INSERT INTO attendance_records (id, event_id, session_id, student_ids, status, recorded_by, recorded_at, scan_code_token, photo_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (event_id, session_id)
DO UPDATE SET student_ids = EXCLUDED.student_ids,
	status = EXCLUDED.status,
	recorded_by = EXCLUDED.recorded_by,
	recorded_at = EXCLUDED.recorded_at,
	scan_code_token = EXCLUDED.scan_code_token,
	photo_type = EXCLUDED.photo_type`
	if _, err := s.tx.ExecContext(ctx, query,
		record.ID, record.EventID, record.SessionID, record.StudentIDs,
		record.Status, record.RecordedBy, record.RecordedAt,
		record.ScanCodeToken, record.PhotoType,
	); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// MarkCodesScanned flips the one-way is_scanned flag on the working set
// and reports how many codes were newly marked. Codes already scanned are
// left untouched, keeping the transition monotonic.
func (s *txSyncStore) MarkCodesScanned(ctx context.Context, codeIDs []string, photographerID string, at time.Time) (int, error) {
	if len(codeIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE scan_codes
SET is_scanned = TRUE, scanned_at = ?, photographer_id = ?
WHERE id IN (?) AND is_scanned = FALSE`, at, photographerID, codeIDs)
	if err != nil {
		return 0, fmt.Errorf("build mark scanned query: %w", err)
	}
	result, err := s.tx.ExecContext(ctx, s.tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("mark codes scanned: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark codes scanned rows: %w", err)
	}
	return int(affected), nil
}
