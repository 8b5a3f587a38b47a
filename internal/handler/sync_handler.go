package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapclass/picday-api/internal/dto"
	appErrors "github.com/snapclass/picday-api/pkg/errors"
	"github.com/snapclass/picday-api/pkg/response"
)

type syncService interface {
	MergeSessions(ctx context.Context, eventID, photographerID string, sessions []dto.SyncSession) (*dto.SyncResult, error)
}

// SyncHandler exposes the offline session sync endpoint.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler builds a new handler.
func NewSyncHandler(service syncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Sync godoc
// @Summary Merge offline-logged sessions for an event
// @Tags Sessions
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param payload body dto.SyncRequest true "Offline sessions"
// @Success 200 {object} response.Envelope
// @Router /events/{eventId}/sessions/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID := c.Param("eventId")

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
		return
	}

	result, err := h.service.MergeSessions(c.Request.Context(), eventID, claims.UserID, req.Sessions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
