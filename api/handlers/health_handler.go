package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vidbatch-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	manager *app.BatchManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *app.BatchManager) *HealthHandler {
	return &HealthHandler{
		manager: manager,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Batches struct {
		Active int `json:"active"`
	} `json:"batches"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.Batches.Active = h.manager.ActiveCount()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
