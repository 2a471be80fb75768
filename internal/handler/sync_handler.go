package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinceyvincey/google-calendar-sync/internal/dto"
	"github.com/vinceyvincey/google-calendar-sync/internal/models"
	"github.com/vinceyvincey/google-calendar-sync/pkg/response"
)

type syncRunner interface {
	Run(ctx context.Context) (models.SyncSummary, error)
	LastRun(ctx context.Context) (*models.RunRecord, error)
}

// SyncHandler exposes the webhook trigger and run status endpoints.
type SyncHandler struct {
	sync syncRunner
}

// NewSyncHandler builds a new handler.
func NewSyncHandler(sync syncRunner) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Trigger godoc
// @Summary Trigger a calendar sync run
// @Description Runs one full reconciliation pass against the configured Notion database. The raw request body must be signed with the shared webhook secret.
// @Tags Sync
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "Hex HMAC-SHA256 digest of the raw body"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /webhook/calendar-sync [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	if _, err := h.sync.Run(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Calendar sync completed")
}

// Status godoc
// @Summary Report the most recent sync run
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.RunSummaryResponse}
// @Failure 404 {object} response.Envelope
// @Router /status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	record, err := h.sync.LastRun(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", dto.NewRunSummaryResponse(*record))
}
