package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snapclass/picday-api/internal/dto"
	"github.com/snapclass/picday-api/internal/models"
	"github.com/snapclass/picday-api/pkg/capture"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/storage"
)

type ingestAnchorLister interface {
	ListAnchors(ctx context.Context, eventID string) ([]models.SessionAnchor, error)
}

type ingestFileStore interface {
	Insert(ctx context.Context, file *models.PhotoFile) (bool, error)
	MapStudents(ctx context.Context, fileID string, studentIDs []string) error
}

// IngestConfig tunes one coordinator instance.
type IngestConfig struct {
	GroupSize          int
	MatchWindow        time.Duration
	ClockOffsetMinutes int
	FileTimeout        time.Duration
}

// IngestService drives bulk camera-card ingestion: a per-file pipeline
// with bounded concurrency where one bad file never poisons the rest.
type IngestService struct {
	sessions ingestAnchorLister
	files    ingestFileStore
	store    storage.ObjectStorage
	extract  capture.InstantFunc
	metrics  *MetricsService
	cfg      IngestConfig
	logger   *zap.Logger
}

// NewIngestService constructs the coordinator.
func NewIngestService(
	sessions ingestAnchorLister,
	files ingestFileStore,
	store storage.ObjectStorage,
	extract capture.InstantFunc,
	metrics *MetricsService,
	cfg IngestConfig,
	logger *zap.Logger,
) *IngestService {
	if extract == nil {
		extract = capture.ExtractCaptureInstant
	}
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 5
	}
	if cfg.MatchWindow <= 0 {
		cfg.MatchWindow = DefaultMatchWindow
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		sessions: sessions,
		files:    files,
		store:    store,
		extract:  extract,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

type fileOutcome struct {
	inserted  bool
	duplicate bool
	failure   *dto.IngestFailure
}

// IngestBatch runs the per-file pipeline over a camera-card batch. The
// call fails as a whole only when the batch is empty or no session
// anchors exist; every other problem is captured per file and returned in
// the aggregate result. Re-running the same batch is safe: files already
// ingested surface as duplicates and are skipped without re-mapping.
func (s *IngestService) IngestBatch(ctx context.Context, eventID, uploaderID string, files []dto.IngestFile, clockOffsetMinutes *int) (*dto.IngestResult, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch requires at least one file")
	}

	anchors, err := s.sessions.ListAnchors(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session anchors")
	}
	if len(anchors) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no photo sessions recorded for this event")
	}

	offset := time.Duration(s.cfg.ClockOffsetMinutes) * time.Minute
	if clockOffsetMinutes != nil {
		offset = time.Duration(*clockOffsetMinutes) * time.Minute
	}

	outcomes := make([]fileOutcome, len(files))
	for start := 0; start < len(files); start += s.cfg.GroupSize {
		end := start + s.cfg.GroupSize
		if end > len(files) {
			end = len(files)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				outcomes[idx] = s.processFile(ctx, eventID, uploaderID, files[idx], anchors, offset)
			}(i)
		}
		wg.Wait()
	}

	result := &dto.IngestResult{EventID: eventID, Failures: []dto.IngestFailure{}}
	for _, outcome := range outcomes {
		switch {
		case outcome.failure != nil:
			result.Failures = append(result.Failures, *outcome.failure)
			s.observe("failure")
		case outcome.duplicate:
			result.Duplicates++
			s.observe("duplicate")
		case outcome.inserted:
			result.New++
			s.observe("new")
		}
	}

	s.logger.Sugar().Infow("batch ingest finished",
		"event_id", eventID, "files", len(files),
		"new", result.New, "duplicates", result.Duplicates, "failures", len(result.Failures))
	return result, nil
}

// processFile runs the whole pipeline for one file. Every failure is
// converted into a named per-file outcome; nothing escapes the batch
// boundary.
func (s *IngestService) processFile(parent context.Context, eventID, uploaderID string, file dto.IngestFile, anchors []models.SessionAnchor, offset time.Duration) fileOutcome {
	ctx, cancel := context.WithTimeout(parent, s.cfg.FileTimeout)
	defer cancel()

	instant, err := s.extract(file.Data)
	if err != nil {
		if errors.Is(err, capture.ErrNoCaptureInstant) {
			return failureOutcome(file.Name, dto.FailureMissingCaptureTime, "")
		}
		return failureOutcome(file.Name, dto.FailureMissingCaptureTime, err.Error())
	}

	corrected := instant.Add(offset)
	anchor, ok := MatchAnchor(anchors, corrected, s.cfg.MatchWindow)
	if !ok {
		return failureOutcome(file.Name, dto.FailureNoSessionWithin,
			fmt.Sprintf("corrected capture instant %s", corrected.UTC().Format(time.RFC3339)))
	}

	objectName := fmt.Sprintf("photos/%s/%s_%s", eventID, uuid.NewString(), sanitizeFileName(file.Name))
	url, err := s.store.Upload(ctx, objectName, file.Data, "image/jpeg")
	if err != nil {
		return failureOutcome(file.Name, dto.FailureStorage, err.Error())
	}

	row := &models.PhotoFile{
		EventID:    eventID,
		SessionID:  anchor.SessionID,
		FileName:   file.Name,
		StorageURL: url,
		PhotoType:  anchor.PhotoType,
		UploadedBy: uploaderID,
	}
	inserted, err := s.files.Insert(ctx, row)
	if err != nil {
		return failureOutcome(file.Name, dto.FailureDatabase, err.Error())
	}
	if !inserted {
		// Already ingested in an earlier run; leave existing mappings alone.
		return fileOutcome{duplicate: true}
	}

	if err := s.files.MapStudents(ctx, row.ID, anchor.StudentIDs); err != nil {
		return failureOutcome(file.Name, dto.FailureDatabase, err.Error())
	}
	return fileOutcome{inserted: true}
}

func (s *IngestService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveIngestFile(outcome)
	}
}

func failureOutcome(name, reason, detail string) fileOutcome {
	return fileOutcome{failure: &dto.IngestFailure{FileName: name, Reason: reason, Detail: detail}}
}

func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
