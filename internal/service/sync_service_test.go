package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snapclass/picday-api/internal/dto"
	"github.com/snapclass/picday-api/internal/models"
	"github.com/snapclass/picday-api/internal/repository"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
)

type syncEventsStub struct {
	err error
}

func (s syncEventsStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Event{ID: id, Name: "picture day"}, nil
}

// syncStoreFake keeps the merge state in maps keyed the way the unique
// indexes key the real tables.
type syncStoreFake struct {
	codes      map[string]*models.ScanCode
	byCode     map[string]*models.PhotoSession
	adHoc      []*models.PhotoSession
	attendance map[string]*models.AttendanceRecord
	scanned    map[string]bool
	upsertErr  error
	nextID     int
}

func newSyncStoreFake(codes ...*models.ScanCode) *syncStoreFake {
	f := &syncStoreFake{
		codes:      make(map[string]*models.ScanCode),
		byCode:     make(map[string]*models.PhotoSession),
		attendance: make(map[string]*models.AttendanceRecord),
		scanned:    make(map[string]bool),
	}
	for _, code := range codes {
		f.codes[code.ID] = code
	}
	return f
}

func (f *syncStoreFake) FindScanCode(ctx context.Context, eventID, scanCodeID string) (*models.ScanCode, error) {
	code, ok := f.codes[scanCodeID]
	if !ok || code.EventID != eventID {
		return nil, sql.ErrNoRows
	}
	return code, nil
}

func (f *syncStoreFake) UpsertSessionByCode(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	key := session.EventID + "|" + *session.ScanCodeID
	if existing, ok := f.byCode[key]; ok {
		existing.PhotographerID = session.PhotographerID
		existing.PhotoType = session.PhotoType
		existing.StudentIDs = session.StudentIDs
		existing.CapturedAt = session.CapturedAt
		return existing, nil
	}
	stored := *session
	stored.ID = f.newID()
	stored.Uploaded = true
	f.byCode[key] = &stored
	return &stored, nil
}

func (f *syncStoreFake) InsertAdHocSession(ctx context.Context, session *models.PhotoSession) (*models.PhotoSession, error) {
	stored := *session
	stored.ID = f.newID()
	stored.Uploaded = true
	f.adHoc = append(f.adHoc, &stored)
	return &stored, nil
}

func (f *syncStoreFake) UpsertAttendance(ctx context.Context, record *models.AttendanceRecord) error {
	f.attendance[record.EventID+"|"+record.SessionID] = record
	return nil
}

func (f *syncStoreFake) MarkCodesScanned(ctx context.Context, codeIDs []string, photographerID string, at time.Time) (int, error) {
	marked := 0
	for _, id := range codeIDs {
		if !f.scanned[id] {
			f.scanned[id] = true
			marked++
		}
	}
	return marked, nil
}

func (f *syncStoreFake) newID() string {
	f.nextID++
	return fmt.Sprintf("session-%d", f.nextID)
}

type txRunnerFake struct {
	store    repository.SyncStore
	beginErr error
	calls    int
}

func (r *txRunnerFake) InTx(ctx context.Context, fn func(store repository.SyncStore) error) error {
	r.calls++
	if r.beginErr != nil {
		return r.beginErr
	}
	return fn(r.store)
}

func newTestSyncService(events syncEventsStub, runner *txRunnerFake) *SyncService {
	return NewSyncService(events, runner, nil, nil, zap.NewNop())
}

func codedSession(codeID string, at time.Time, studentIDs ...string) dto.SyncSession {
	return dto.SyncSession{
		ScanCodeID: &codeID,
		PhotoType:  string(models.PhotoTypeIndividual),
		StudentIDs: studentIDs,
		CapturedAt: at,
	}
}

func TestMergeSessionsEmptyPayload(t *testing.T) {
	svc := newTestSyncService(syncEventsStub{}, &txRunnerFake{store: newSyncStoreFake()})

	_, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", nil)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestMergeSessionsUnknownPhotoType(t *testing.T) {
	svc := newTestSyncService(syncEventsStub{}, &txRunnerFake{store: newSyncStoreFake()})

	sessions := []dto.SyncSession{{
		PhotoType:  "panorama",
		StudentIDs: []string{"student-1"},
		CapturedAt: time.Now(),
	}}
	_, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", sessions)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestMergeSessionsEventNotFound(t *testing.T) {
	runner := &txRunnerFake{store: newSyncStoreFake()}
	svc := newTestSyncService(syncEventsStub{err: sql.ErrNoRows}, runner)

	sessions := []dto.SyncSession{codedSession("code-1", time.Now(), "student-1")}
	_, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", sessions)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
	assert.Zero(t, runner.calls)
}

func TestMergeSessionsCodedAndAdHoc(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	store := newSyncStoreFake(&models.ScanCode{ID: "code-1", EventID: "event-1", Token: "tok-1"})
	runner := &txRunnerFake{store: store}
	svc := newTestSyncService(syncEventsStub{}, runner)

	sessions := []dto.SyncSession{
		codedSession("code-1", t0, "student-1"),
		{
			PhotoType:  string(models.PhotoTypeFriends),
			StudentIDs: []string{"student-2", "student-3"},
			CapturedAt: t0.Add(time.Minute),
		},
	}
	result, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", sessions)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalSessions)
	assert.Equal(t, 1, result.CodesMarkedScanned)
	assert.Len(t, store.byCode, 1)
	assert.Len(t, store.adHoc, 1)
	assert.Len(t, store.attendance, 2)
	assert.True(t, store.scanned["code-1"])

	coded := store.byCode["event-1|code-1"]
	require.NotNil(t, coded)
	record := store.attendance["event-1|"+coded.ID]
	require.NotNil(t, record)
	require.NotNil(t, record.ScanCodeToken)
	assert.Equal(t, "tok-1", *record.ScanCodeToken)
	assert.Equal(t, models.AttendancePresent, record.Status)
}

func TestMergeSessionsResubmitOverwritesNotDuplicates(t *testing.T) {
	t0 := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	store := newSyncStoreFake(&models.ScanCode{ID: "code-1", EventID: "event-1", Token: "tok-1"})
	runner := &txRunnerFake{store: store}
	svc := newTestSyncService(syncEventsStub{}, runner)

	first := []dto.SyncSession{codedSession("code-1", t0, "student-1")}
	result, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", first)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CodesMarkedScanned)

	// Edited on the device and resubmitted.
	second := []dto.SyncSession{codedSession("code-1", t0.Add(time.Minute), "student-1", "student-9")}
	result, err = svc.MergeSessions(context.Background(), "event-1", "photog-1", second)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CodesMarkedScanned)

	require.Len(t, store.byCode, 1)
	assert.Empty(t, store.adHoc)
	session := store.byCode["event-1|code-1"]
	assert.Equal(t, []string{"student-1", "student-9"}, []string(session.StudentIDs))
	assert.Equal(t, t0.Add(time.Minute), session.CapturedAt)
	assert.Len(t, store.attendance, 1)
}

func TestMergeSessionsUnknownScanCodeAbortsMerge(t *testing.T) {
	store := newSyncStoreFake()
	runner := &txRunnerFake{store: store}
	svc := newTestSyncService(syncEventsStub{}, runner)

	sessions := []dto.SyncSession{codedSession("code-missing", time.Now(), "student-1")}
	_, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", sessions)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
	assert.Empty(t, store.scanned)
}

func TestMergeSessionsStoreFailureWrapped(t *testing.T) {
	store := newSyncStoreFake(&models.ScanCode{ID: "code-1", EventID: "event-1", Token: "tok-1"})
	store.upsertErr = errors.New("connection reset")
	runner := &txRunnerFake{store: store}
	svc := newTestSyncService(syncEventsStub{}, runner)

	sessions := []dto.SyncSession{codedSession("code-1", time.Now(), "student-1")}
	_, err := svc.MergeSessions(context.Background(), "event-1", "photog-1", sessions)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrTransactionAborted.Code, typed.Code)
	assert.Empty(t, store.attendance)
}
