package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/app"
	"github.com/yourusername/vidbatch-go/internal/domain"
)

// BatchHandler handles batch-task HTTP requests
type BatchHandler struct {
	manager *app.BatchManager
	logger  *zap.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(manager *app.BatchManager, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		manager: manager,
		logger:  logger,
	}
}

// CreateBatchRequest represents a request to create a batch task
type CreateBatchRequest struct {
	URLs     []string             `json:"urls" binding:"required"`
	Settings domain.BatchSettings `json:"settings"`
	Start    bool                 `json:"start"`
}

// CreateBatch handles POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task *domain.BatchTask
	var err error
	if req.Start {
		task, err = h.manager.RunTask(req.URLs, req.Settings)
	} else {
		task, err = h.manager.CreateTask(req.URLs, req.Settings)
	}
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
			return
		}
		h.logger.Error("Failed to create batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetBatch handles GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	task, err := h.manager.GetTask(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	tasks, err := h.manager.ListTasks()
	if err != nil {
		h.logger.Error("Failed to list batches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := tasks[:0]
		for _, task := range tasks {
			if string(task.Status) == status {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	c.JSON(http.StatusOK, tasks)
}

// StartBatch handles POST /api/v1/batches/:id/start
func (h *BatchHandler) StartBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.StartTask(id); err != nil {
		h.logger.Error("Failed to start batch", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch started"})
}

// PauseBatch handles POST /api/v1/batches/:id/pause
func (h *BatchHandler) PauseBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.PauseTask(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch paused"})
}

// ResumeBatch handles POST /api/v1/batches/:id/resume
func (h *BatchHandler) ResumeBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.ResumeTask(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch resumed"})
}

// StopBatch handles POST /api/v1/batches/:id/stop
func (h *BatchHandler) StopBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.StopTask(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch stopping"})
}

// DeleteBatch handles DELETE /api/v1/batches/:id
func (h *BatchHandler) DeleteBatch(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.DeleteTask(id); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "batch deleted"})
}

// GetStats handles GET /api/v1/batches/stats
func (h *BatchHandler) GetStats(c *gin.Context) {
	stats, err := h.manager.AggregateStats()
	if err != nil {
		h.logger.Error("Failed to aggregate stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"summary": stats.Summary(),
		"active":  h.manager.ActiveCount(),
	})
}
