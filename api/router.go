package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/vidbatch-go/api/handlers"
	"github.com/yourusername/vidbatch-go/api/middleware"
	"github.com/yourusername/vidbatch-go/internal/app"
	"github.com/yourusername/vidbatch-go/pkg/logger"
)

// SetupRouter sets up the HTTP router over the batch manager and sync
// engine, with per-category request logging.
func SetupRouter(
	batchMgr *app.BatchManager,
	syncEngine *app.SyncEngine,
	logAdapter *logger.LoggerAdapter,
	logsDir string,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.LoggerWithAdapter(logAdapter))
	router.Use(middleware.RecoveryWithAdapter(logAdapter))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(batchMgr)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	progressHandler := handlers.NewProgressWebSocketHandler(batchMgr, logAdapter.GetSingleLogger())
	router.GET("/ws/progress", progressHandler.HandleWebSocket)

	v1 := router.Group("/api/v1")
	{
		batchHandler := handlers.NewBatchHandler(batchMgr, logAdapter.Batch())
		batches := v1.Group("/batches")
		{
			batches.POST("", batchHandler.CreateBatch)
			batches.GET("", batchHandler.ListBatches)
			batches.GET("/stats", batchHandler.GetStats)
			batches.GET("/:id", batchHandler.GetBatch)
			batches.POST("/:id/start", batchHandler.StartBatch)
			batches.POST("/:id/pause", batchHandler.PauseBatch)
			batches.POST("/:id/resume", batchHandler.ResumeBatch)
			batches.POST("/:id/stop", batchHandler.StopBatch)
			batches.DELETE("/:id", batchHandler.DeleteBatch)
		}

		playlistHandler := handlers.NewPlaylistHandler(syncEngine, logAdapter.PlaylistSync())
		playlists := v1.Group("/playlists")
		{
			playlists.GET("", playlistHandler.ListPlaylists)
			playlists.POST("/check", playlistHandler.CheckPlaylist)
			playlists.POST("/check-all", playlistHandler.CheckAllPlaylists)
		}

		logHandler := handlers.NewLogHandler(logsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	return router
}
