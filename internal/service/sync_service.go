package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/snapclass/picday-api/internal/dto"
	"github.com/snapclass/picday-api/internal/models"
	"github.com/snapclass/picday-api/internal/repository"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
)

type syncEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type syncTxRunner interface {
	InTx(ctx context.Context, fn func(store repository.SyncStore) error) error
}

// SyncService merges a photographer's offline-logged sessions into shared
// state. One call is one coherent device submission and commits atomically:
// any failure anywhere rolls back all of it.
type SyncService struct {
	events    syncEventReader
	runner    syncTxRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSyncService constructs the merger.
func NewSyncService(events syncEventReader, runner syncTxRunner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		events:    events,
		runner:    runner,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// MergeSessions folds the submitted sessions into the shared store.
// Sessions referencing a scan code are upserted on (event, code), so an
// edit-and-resubmit from the device overwrites rather than duplicates; ad
// hoc sessions always insert. After every upsert succeeds, the touched
// codes are marked scanned; the count reflects only codes not already
// scanned before this call.
func (s *SyncService) MergeSessions(ctx context.Context, eventID, photographerID string, sessions []dto.SyncSession) (*dto.SyncResult, error) {
	if len(sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sync requires at least one session")
	}
	for _, sess := range sessions {
		if err := s.validator.Struct(sess); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
		}
		if !models.PhotoType(sess.PhotoType).Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown photo type "+sess.PhotoType)
		}
	}

	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	result := &dto.SyncResult{EventID: eventID, TotalSessions: len(sessions)}
	err := s.runner.InTx(ctx, func(store repository.SyncStore) error {
		touched := make(map[string]struct{})

		for _, sess := range sessions {
			session := &models.PhotoSession{
				EventID:        eventID,
				ScanCodeID:     sess.ScanCodeID,
				PhotographerID: photographerID,
				PhotoType:      models.PhotoType(sess.PhotoType),
				StudentIDs:     sess.StudentIDs,
				CapturedAt:     sess.CapturedAt,
			}

			var (
				stored *models.PhotoSession
				token  *string
				err    error
			)
			if sess.ScanCodeID != nil {
				code, err := store.FindScanCode(ctx, eventID, *sess.ScanCodeID)
				if err != nil {
					if errors.Is(err, sql.ErrNoRows) {
						return appErrors.Clone(appErrors.ErrNotFound, "scan code not found for this event")
					}
					return err
				}
				token = &code.Token
				stored, err = store.UpsertSessionByCode(ctx, session)
				if err != nil {
					return err
				}
				touched[code.ID] = struct{}{}
			} else {
				stored, err = store.InsertAdHocSession(ctx, session)
				if err != nil {
					return err
				}
			}

			record := &models.AttendanceRecord{
				EventID:       eventID,
				SessionID:     stored.ID,
				StudentIDs:    sess.StudentIDs,
				Status:        models.AttendancePresent,
				RecordedBy:    photographerID,
				RecordedAt:    sess.CapturedAt,
				ScanCodeToken: token,
				PhotoType:     models.PhotoType(sess.PhotoType),
			}
			if err := store.UpsertAttendance(ctx, record); err != nil {
				return err
			}
		}

		if len(touched) > 0 {
			ids := make([]string, 0, len(touched))
			for id := range touched {
				ids = append(ids, id)
			}
			marked, err := store.MarkCodesScanned(ctx, ids, photographerID, time.Now().UTC())
			if err != nil {
				return err
			}
			result.CodesMarkedScanned = marked
		}
		return nil
	})
	if err != nil {
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionAborted.Code, appErrors.ErrTransactionAborted.Status, "sync merge aborted")
	}

	if s.metrics != nil {
		s.metrics.ObserveSyncMerge(result.TotalSessions, result.CodesMarkedScanned)
	}
	s.logger.Sugar().Infow("sync merge committed",
		"event_id", eventID, "photographer_id", photographerID,
		"sessions", result.TotalSessions, "codes_marked", result.CodesMarkedScanned)
	return result, nil
}
