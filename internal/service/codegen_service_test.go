package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snapclass/picday-api/internal/models"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/jobs"
	"github.com/snapclass/picday-api/pkg/render"
	"github.com/snapclass/picday-api/pkg/storage"
)

type codegenEventsStub struct {
	event     *models.Event
	students  []models.Student
	findErr   error
	listErr   error
	listCalls int
}

func (s *codegenEventsStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.event != nil {
		return s.event, nil
	}
	return &models.Event{ID: id, Name: "picture day"}, nil
}

func (s *codegenEventsStub) ListEnrolledStudents(ctx context.Context, eventID string) ([]models.Student, error) {
	s.listCalls++
	return s.students, s.listErr
}

type prefsStub struct {
	prefs []models.PhotoPreference
	err   error
}

func (s prefsStub) ListByEvent(ctx context.Context, eventID string) ([]models.PhotoPreference, error) {
	return s.prefs, s.err
}

type codeStoreStub struct {
	count     int
	countErr  error
	listResp  []models.ScanCode
	listErr   error
	insertErr error
	inserted  []models.ScanCode
}

func (s *codeStoreStub) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return s.count, s.countErr
}

func (s *codeStoreStub) ListByEvent(ctx context.Context, eventID string) ([]models.ScanCode, error) {
	return s.listResp, s.listErr
}

func (s *codeStoreStub) InsertBatch(ctx context.Context, codes []models.ScanCode) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, codes...)
	return nil
}

type rendererStub struct {
	err      error
	payloads []render.CodePayload
}

func (s *rendererStub) Render(payload render.CodePayload) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, payload)
	return []byte("png"), nil
}

type rosterCacheStub struct {
	students []models.Student
	setKeys  []string
}

func (s *rosterCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.students == nil {
		return appErrors.ErrCacheMiss
	}
	out, ok := dest.(*[]models.Student)
	if !ok {
		return errors.New("unexpected destination type")
	}
	*out = s.students
	return nil
}

func (s *rosterCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	s.setKeys = append(s.setKeys, key)
}

type sheetQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (s *sheetQueueStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func newTestCodegenService(events *codegenEventsStub, prefs prefsStub, codes *codeStoreStub, renderer *rendererStub, cache *rosterCacheStub, sheets *sheetQueueStub) *CodegenService {
	return newTestCodegenServiceWithStore(events, prefs, codes, renderer, cache, sheets, &objectStoreStub{})
}

func newTestCodegenServiceWithStore(events *codegenEventsStub, prefs prefsStub, codes *codeStoreStub, renderer *rendererStub, cache *rosterCacheStub, sheets *sheetQueueStub, store *objectStoreStub) *CodegenService {
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewCodegenService(events, prefs, codes, renderer, store, signer, cache, sheets, nil, time.Minute, zap.NewNop())
}

func TestGenerateCodesEventNotFound(t *testing.T) {
	svc := newTestCodegenService(&codegenEventsStub{findErr: sql.ErrNoRows}, prefsStub{}, &codeStoreStub{}, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, err := svc.GenerateCodes(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestGenerateCodesRejectsSecondRun(t *testing.T) {
	codes := &codeStoreStub{count: 12}
	svc := newTestCodegenService(&codegenEventsStub{}, prefsStub{}, codes, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, err := svc.GenerateCodes(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
	assert.Empty(t, codes.inserted)
}

func TestGenerateCodesFromPreferences(t *testing.T) {
	prefs := prefsStub{prefs: []models.PhotoPreference{
		{ID: "pref-1", EventID: "event-1", StudentID: "student-1", PhotoType: models.PhotoTypeSiblings, ExtraStudentIDs: []string{"student-2"}},
		{ID: "pref-2", EventID: "event-1", StudentID: "student-3", PhotoType: models.PhotoTypeIndividual},
	}}
	codes := &codeStoreStub{}
	renderer := &rendererStub{}
	sheets := &sheetQueueStub{}
	svc := newTestCodegenService(&codegenEventsStub{}, prefs, codes, renderer, &rosterCacheStub{}, sheets)

	result, err := svc.GenerateCodes(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)
	require.Len(t, codes.inserted, 2)

	// Primary student leads the roster; extras follow in preference order.
	first := codes.inserted[0]
	assert.Equal(t, []string{"student-1", "student-2"}, []string(first.StudentIDs))
	assert.Equal(t, models.PhotoTypeSiblings, first.PhotoType)
	require.NotNil(t, first.PreferenceID)
	assert.Equal(t, "pref-1", *first.PreferenceID)
	assert.NotEmpty(t, first.Token)
	assert.NotEmpty(t, first.ImageURL)
	assert.False(t, first.IsScanned)

	require.Len(t, sheets.jobs, 1)
	assert.Equal(t, "code_sheet", sheets.jobs[0].Type)
	assert.Equal(t, "event-1", sheets.jobs[0].Payload)
}

func TestGenerateCodesDefaultsToEnrolledRoster(t *testing.T) {
	events := &codegenEventsStub{students: []models.Student{
		{ID: "student-1", FullName: "Ana"},
		{ID: "student-2", FullName: "Ben"},
		{ID: "student-3", FullName: "Cleo"},
	}}
	codes := &codeStoreStub{}
	cache := &rosterCacheStub{}
	svc := newTestCodegenService(events, prefsStub{}, codes, &rendererStub{}, cache, &sheetQueueStub{})

	result, err := svc.GenerateCodes(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Generated)
	require.Len(t, codes.inserted, 3)
	for i, code := range codes.inserted {
		assert.Equal(t, models.PhotoTypeIndividual, code.PhotoType)
		assert.Equal(t, []string{events.students[i].ID}, []string(code.StudentIDs))
		assert.Nil(t, code.PreferenceID)
	}
	assert.Equal(t, []string{"picday:roster:event-1"}, cache.setKeys)
}

func TestGenerateCodesUsesCachedRoster(t *testing.T) {
	events := &codegenEventsStub{}
	cache := &rosterCacheStub{students: []models.Student{{ID: "student-1"}}}
	codes := &codeStoreStub{}
	svc := newTestCodegenService(events, prefsStub{}, codes, &rendererStub{}, cache, &sheetQueueStub{})

	result, err := svc.GenerateCodes(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Zero(t, events.listCalls)
}

func TestGenerateCodesNothingToCompile(t *testing.T) {
	svc := newTestCodegenService(&codegenEventsStub{}, prefsStub{}, &codeStoreStub{}, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, err := svc.GenerateCodes(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestGenerateCodesRenderFailureWritesNoRows(t *testing.T) {
	prefs := prefsStub{prefs: []models.PhotoPreference{
		{ID: "pref-1", EventID: "event-1", StudentID: "student-1", PhotoType: models.PhotoTypeIndividual},
	}}
	codes := &codeStoreStub{}
	renderer := &rendererStub{err: errors.New("payload too large")}
	sheets := &sheetQueueStub{}
	svc := newTestCodegenService(&codegenEventsStub{}, prefs, codes, renderer, &rosterCacheStub{}, sheets)

	_, err := svc.GenerateCodes(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrExternalService.Code, typed.Code)
	assert.Empty(t, codes.inserted)
	assert.Empty(t, sheets.jobs)
}

func TestSheetDownloadLinkRequiresCodes(t *testing.T) {
	svc := newTestCodegenService(&codegenEventsStub{}, prefsStub{}, &codeStoreStub{}, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, _, err := svc.SheetDownloadLink(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestSheetDownloadRoundTrip(t *testing.T) {
	store := &objectStoreStub{objects: map[string][]byte{
		"codes/event-1/sheet.pdf": []byte("%PDF-1.4 sheet"),
	}}
	codes := &codeStoreStub{count: 3}
	svc := newTestCodegenServiceWithStore(&codegenEventsStub{}, prefsStub{}, codes, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{}, store)

	url, expiresAt, err := svc.SheetDownloadLink(context.Background(), "event-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/downloads/code-sheet?token="))
	assert.True(t, expiresAt.After(time.Now()))

	token := strings.TrimPrefix(url, "/downloads/code-sheet?token=")
	data, err := svc.DownloadSheet(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 sheet"), data)
}

func TestDownloadSheetRejectsBadToken(t *testing.T) {
	svc := newTestCodegenService(&codegenEventsStub{}, prefsStub{}, &codeStoreStub{}, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, err := svc.DownloadSheet(context.Background(), "not-a-token")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestRenderCodeSheetNoCodes(t *testing.T) {
	svc := newTestCodegenService(&codegenEventsStub{}, prefsStub{}, &codeStoreStub{}, &rendererStub{}, &rosterCacheStub{}, &sheetQueueStub{})

	_, err := svc.RenderCodeSheet(context.Background(), "event-1")
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}
