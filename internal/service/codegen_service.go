package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snapclass/picday-api/internal/dto"
	"github.com/snapclass/picday-api/internal/models"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/export"
	"github.com/snapclass/picday-api/pkg/jobs"
	"github.com/snapclass/picday-api/pkg/render"
	"github.com/snapclass/picday-api/pkg/storage"
)

type codegenEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ListEnrolledStudents(ctx context.Context, eventID string) ([]models.Student, error)
}

type codegenPreferenceReader interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.PhotoPreference, error)
}

type codegenCodeStore interface {
	CountByEvent(ctx context.Context, eventID string) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.ScanCode, error)
	InsertBatch(ctx context.Context, codes []models.ScanCode) error
}

type codeRenderer interface {
	Render(payload render.CodePayload) ([]byte, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

type sheetEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// codeJob is one scan code to compile: the roster, primary student first,
// and the shot type.
type codeJob struct {
	preferenceID *string
	photoType    models.PhotoType
	studentIDs   []string
}

// CodegenService compiles photo preferences into printable scan codes.
type CodegenService struct {
	events   codegenEventReader
	prefs    codegenPreferenceReader
	codes    codegenCodeStore
	renderer codeRenderer
	store    storage.ObjectStorage
	signer   *storage.SignedURLSigner
	cache    rosterCache
	sheets   sheetEnqueuer
	exporter *export.CodeSheetExporter
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCodegenService constructs the service. The sheet enqueuer may be nil
// when the printable-sheet job is disabled.
func NewCodegenService(
	events codegenEventReader,
	prefs codegenPreferenceReader,
	codes codegenCodeStore,
	renderer codeRenderer,
	store storage.ObjectStorage,
	signer *storage.SignedURLSigner,
	cache rosterCache,
	sheets sheetEnqueuer,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *CodegenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodegenService{
		events:   events,
		prefs:    prefs,
		codes:    codes,
		renderer: renderer,
		store:    store,
		signer:   signer,
		cache:    cache,
		sheets:   sheets,
		exporter: export.NewCodeSheetExporter(),
		metrics:  metrics,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// AttachSheetQueue wires the background code-sheet queue. The queue's
// handler calls back into this service, so it is attached after
// construction.
func (s *CodegenService) AttachSheetQueue(q sheetEnqueuer) {
	s.sheets = q
}

// GenerateCodes compiles the full code set for an event. Generation is
// all-or-nothing: it is rejected outright when any code already exists,
// and a failed run writes no rows. Images uploaded before a failure are
// not cleaned up.
func (s *CodegenService) GenerateCodes(ctx context.Context, eventID string) (*dto.GenerateCodesResult, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	existing, err := s.codes.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scan codes")
	}
	if existing > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "scan codes already generated for this event")
	}

	codeJobs, err := s.buildJobs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(codeJobs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event has no preferences and no enrolled students")
	}

	rows := make([]models.ScanCode, 0, len(codeJobs))
	for _, job := range codeJobs {
		token := uuid.NewString()
		png, err := s.renderer.Render(render.CodePayload{
			EventID:    eventID,
			Token:      token,
			PhotoType:  string(job.photoType),
			StudentIDs: job.studentIDs,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to render scan code image")
		}
		objectName := fmt.Sprintf("codes/%s/%s.png", eventID, token)
		url, err := s.store.Upload(ctx, objectName, png, "image/png")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to upload scan code image")
		}
		rows = append(rows, models.ScanCode{
			EventID:      eventID,
			PreferenceID: job.preferenceID,
			Token:        token,
			PhotoType:    job.photoType,
			StudentIDs:   job.studentIDs,
			ImageURL:     url,
		})
	}

	if err := s.codes.InsertBatch(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scan codes")
	}

	s.logger.Sugar().Infow("scan codes generated", "event_id", eventID, "event", event.Name, "codes", len(rows))
	if s.metrics != nil {
		s.metrics.ObserveCodesGenerated(len(rows))
	}
	s.enqueueSheet(eventID)

	result := &dto.GenerateCodesResult{EventID: eventID, Generated: len(rows)}
	for _, row := range rows {
		result.Codes = append(result.Codes, dto.GeneratedCode{
			ID:         row.ID,
			Token:      row.Token,
			PhotoType:  string(row.PhotoType),
			StudentIDs: row.StudentIDs,
			ImageURL:   row.ImageURL,
		})
	}
	return result, nil
}

// RenderCodeSheet builds the printable PDF for an event's code set and
// stores it alongside the code images.
func (s *CodegenService) RenderCodeSheet(ctx context.Context, eventID string) ([]byte, error) {
	codes, err := s.codes.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scan codes")
	}
	if len(codes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no scan codes generated for this event")
	}

	entries := make([]export.CodeSheetEntry, 0, len(codes))
	for _, code := range codes {
		png, err := s.store.Download(ctx, fmt.Sprintf("codes/%s/%s.png", eventID, code.Token))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load scan code image")
		}
		entries = append(entries, export.CodeSheetEntry{
			Token:      code.Token,
			PhotoType:  string(code.PhotoType),
			StudentIDs: code.StudentIDs,
			PNG:        png,
		})
	}

	sheet, err := s.exporter.Render("scan codes "+eventID, entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render code sheet")
	}

	if _, err := s.store.Upload(ctx, fmt.Sprintf("codes/%s/sheet.pdf", eventID), sheet, "application/pdf"); err != nil {
		s.logger.Sugar().Warnw("store code sheet failed", "event_id", eventID, "error", err)
	}
	return sheet, nil
}

// SheetDownloadLink mints a pre-signed link for the event's printable
// sheet so it can be fetched from a kiosk or printer without a bearer
// token.
func (s *CodegenService) SheetDownloadLink(ctx context.Context, eventID string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	count, err := s.codes.CountByEvent(ctx, eventID)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scan codes")
	}
	if count == 0 {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "no scan codes generated for this event")
	}
	token, expiresAt, err := s.signer.Generate(eventID, fmt.Sprintf("codes/%s/sheet.pdf", eventID))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	return "/downloads/code-sheet?token=" + token, expiresAt, nil
}

// DownloadSheet validates a signed token and returns the stored PDF. When
// the background render has not caught up yet, the sheet is rendered on
// demand.
func (s *CodegenService) DownloadSheet(ctx context.Context, token string) ([]byte, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	eventID, objectName, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if data, err := s.store.Download(ctx, objectName); err == nil {
		return data, nil
	}
	return s.RenderCodeSheet(ctx, eventID)
}

func (s *CodegenService) buildJobs(ctx context.Context, eventID string) ([]codeJob, error) {
	prefs, err := s.prefs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preferences")
	}

	if len(prefs) == 0 {
		students, err := s.enrolledStudents(ctx, eventID)
		if err != nil {
			return nil, err
		}
		codeJobs := make([]codeJob, 0, len(students))
		for _, student := range students {
			codeJobs = append(codeJobs, codeJob{
				photoType:  models.PhotoTypeIndividual,
				studentIDs: []string{student.ID},
			})
		}
		return codeJobs, nil
	}

	codeJobs := make([]codeJob, 0, len(prefs))
	for i := range prefs {
		pref := prefs[i]
		roster := make([]string, 0, 1+len(pref.ExtraStudentIDs))
		roster = append(roster, pref.StudentID)
		roster = append(roster, pref.ExtraStudentIDs...)
		codeJobs = append(codeJobs, codeJob{
			preferenceID: &prefs[i].ID,
			photoType:    pref.PhotoType,
			studentIDs:   roster,
		})
	}
	return codeJobs, nil
}

func (s *CodegenService) enrolledStudents(ctx context.Context, eventID string) ([]models.Student, error) {
	key := "picday:roster:" + eventID
	var students []models.Student
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &students); err == nil {
			return students, nil
		}
	}

	students, err := s.events.ListEnrolledStudents(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, students, s.cacheTTL)
	}
	return students, nil
}

func (s *CodegenService) enqueueSheet(eventID string) {
	if s.sheets == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: "code_sheet", Payload: eventID}
	if err := s.sheets.Enqueue(job); err != nil {
		s.logger.Sugar().Warnw("enqueue code sheet failed", "event_id", eventID, "error", err)
	}
}
