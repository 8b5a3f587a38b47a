package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snapclass/picday-api/internal/dto"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/export"
	"github.com/snapclass/picday-api/pkg/response"
)

type ingestService interface {
	IngestBatch(ctx context.Context, eventID, uploaderID string, files []dto.IngestFile, clockOffsetMinutes *int) (*dto.IngestResult, error)
}

// IngestHandler exposes the camera-card batch upload endpoint.
type IngestHandler struct {
	service ingestService
	csv     *export.CSVExporter
}

// NewIngestHandler builds a new handler.
func NewIngestHandler(service ingestService) *IngestHandler {
	return &IngestHandler{service: service, csv: export.NewCSVExporter()}
}

// Ingest godoc
// @Summary Ingest a camera-card batch for an event
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param eventId path string true "Event ID"
// @Param clockOffsetMinutes query int false "Camera clock offset correction in minutes"
// @Param format query string false "Set to csv to receive the failure report as CSV"
// @Param files formData file true "Image files"
// @Success 200 {object} response.Envelope
// @Router /events/{eventId}/photos/batch [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID := c.Param("eventId")

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}
	var files []dto.IngestFile
	for _, header := range form.File["files"] {
		src, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file "+header.Filename))
			return
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file "+header.Filename))
			return
		}
		files = append(files, dto.IngestFile{Name: header.Filename, Data: data})
	}

	var offset *int
	if raw := c.Query("clockOffsetMinutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "clockOffsetMinutes must be an integer"))
			return
		}
		offset = &minutes
	}

	result, err := h.service.IngestBatch(c.Request.Context(), eventID, claims.UserID, files, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") == "csv" {
		h.renderFailureCSV(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *IngestHandler) renderFailureCSV(c *gin.Context, result *dto.IngestResult) {
	data := export.Dataset{Headers: []string{"file_name", "reason", "detail"}}
	for _, failure := range result.Failures {
		data.Rows = append(data.Rows, map[string]string{
			"file_name": failure.FileName,
			"reason":    failure.Reason,
			"detail":    failure.Detail,
		})
	}
	payload, err := h.csv.Render(data)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render failure report"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="ingest-failures.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}
