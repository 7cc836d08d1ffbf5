package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/app"
	"github.com/yourusername/vidbatch-go/internal/domain"
)

// PlaylistHandler handles playlist sync HTTP requests
type PlaylistHandler struct {
	engine *app.SyncEngine
	logger *zap.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(engine *app.SyncEngine, logger *zap.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		engine: engine,
		logger: logger,
	}
}

// CheckPlaylistRequest represents a playlist update check request.
// AutoDownload controls whether detected changes are downloaded
// immediately or only recorded for later.
type CheckPlaylistRequest struct {
	PlaylistURL  string               `json:"playlist_url" binding:"required"`
	Settings     domain.BatchSettings `json:"settings"`
	AutoDownload bool                 `json:"auto_download"`
}

// CheckPlaylist handles POST /api/v1/playlists/check
func (h *PlaylistHandler) CheckPlaylist(c *gin.Context) {
	var req CheckPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirm := manualConfirm
	if req.AutoDownload {
		confirm = nil
	}

	report := h.engine.DetectUpdates(c.Request.Context(), req.PlaylistURL, req.Settings, confirm)
	if report.Outcome == app.SyncError {
		h.logger.Warn("Playlist check failed",
			zap.String("playlist_url", req.PlaylistURL),
			zap.String("reason", report.Error))
		c.JSON(http.StatusBadGateway, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListPlaylists handles GET /api/v1/playlists
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	tracked := h.engine.TrackedPlaylists()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(tracked),
		"playlists": tracked,
	})
}

// CheckAllRequest represents a check of every tracked playlist.
type CheckAllRequest struct {
	Settings     domain.BatchSettings `json:"settings"`
	AutoDownload bool                 `json:"auto_download"`
}

// CheckAllPlaylists handles POST /api/v1/playlists/check-all
func (h *PlaylistHandler) CheckAllPlaylists(c *gin.Context) {
	var req CheckAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirm := manualConfirm
	if req.AutoDownload {
		confirm = nil
	}

	reports := h.engine.CheckAll(c.Request.Context(), req.Settings, confirm)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(reports),
		"reports": reports,
	})
}

// manualConfirm records detected changes without triggering downloads;
// the caller decides what to do with the report.
func manualConfirm(*app.SyncReport) app.SyncOutcome {
	return app.SyncManual
}
