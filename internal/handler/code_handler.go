package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snapclass/picday-api/internal/dto"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/response"
)

type codegenService interface {
	GenerateCodes(ctx context.Context, eventID string) (*dto.GenerateCodesResult, error)
	RenderCodeSheet(ctx context.Context, eventID string) ([]byte, error)
	SheetDownloadLink(ctx context.Context, eventID string) (string, time.Time, error)
	DownloadSheet(ctx context.Context, token string) ([]byte, error)
}

// CodeHandler exposes scan-code compilation endpoints.
type CodeHandler struct {
	service codegenService
}

// NewCodeHandler builds a new handler.
func NewCodeHandler(service codegenService) *CodeHandler {
	return &CodeHandler{service: service}
}

// Generate godoc
// @Summary Compile scan codes for an event
// @Tags Scan Codes
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Router /events/{eventId}/scan-codes [post]
func (h *CodeHandler) Generate(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "eventId is required"))
		return
	}
	result, err := h.service.GenerateCodes(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Sheet godoc
// @Summary Download the printable code sheet for an event
// @Tags Scan Codes
// @Produce application/pdf
// @Param eventId path string true "Event ID"
// @Success 200 {file} binary
// @Router /events/{eventId}/scan-codes/sheet [get]
func (h *CodeHandler) Sheet(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "eventId is required"))
		return
	}
	sheet, err := h.service.RenderCodeSheet(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="scan-codes-`+eventID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", sheet)
}

// SheetLink godoc
// @Summary Mint a pre-signed download link for the code sheet
// @Tags Scan Codes
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventId}/scan-codes/sheet/link [get]
func (h *CodeHandler) SheetLink(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "eventId is required"))
		return
	}
	url, expiresAt, err := h.service.SheetDownloadLink(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt})
}

// SheetDownload serves the code sheet for a valid signed token. The route
// is public; the token is the credential.
func (h *CodeHandler) SheetDownload(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	sheet, err := h.service.DownloadSheet(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="scan-codes.pdf"`)
	c.Data(http.StatusOK, "application/pdf", sheet)
}
