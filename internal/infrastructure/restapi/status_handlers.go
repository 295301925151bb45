package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

// APIStatusResponse is the body of the status endpoint.
type APIStatusResponse struct {
	Data          entity.BatchProgress `json:"data"`
	StatusMessage string               `json:"status_message"`
}

// StatusHandler serves the progress of the running batch.
type StatusHandler struct {
	progress port.ProgressProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(p port.ProgressProvider) *StatusHandler {
	return &StatusHandler{progress: p}
}

// GetStatusHandler returns a snapshot of the batch.
func (h *StatusHandler) GetStatusHandler(c *gin.Context) {
	snapshot := h.progress.Progress()

	response := APIStatusResponse{Data: snapshot}
	switch {
	case snapshot.RunID == "":
		response.StatusMessage = "Batch has not started."
	case !snapshot.FinishedAt.IsZero():
		response.StatusMessage = "Batch finished."
	default:
		response.StatusMessage = "Batch running."
	}

	c.JSON(http.StatusOK, response)
}

// HealthHandler reports that the process is alive.
func (h *StatusHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
