package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/api"
	"github.com/yourusername/vidbatch-go/internal/app"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
	"github.com/yourusername/vidbatch-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(config.Storage.LogsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logs directory: %v\n", err)
		os.Exit(1)
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Storage.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(multiLog)
	log := logAdapter.GetSingleLogger()

	log.Info("Starting vidbatch server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("ytdlp", config.Download.YTDLPBinary))

	ledger, err := infrastructure.NewJSONLedgerStore(config.Storage.HistoryFile)
	if err != nil {
		log.Fatal("Failed to load download history", zap.Error(err))
	}
	snapshots, err := infrastructure.NewJSONSnapshotStore(config.Storage.SnapshotFile)
	if err != nil {
		log.Fatal("Failed to load playlist snapshots", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteBatchRepository(config.Storage.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var notifier *infrastructure.NotificationService
	if config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	batchMgr := app.NewBatchManager(config, repo, ledger, notifier, logAdapter.Batch())

	fetcher := infrastructure.NewYTDLPPlaylistFetcher(config.Download.YTDLPBinary, config.Download.FetchTimeout)
	syncEngine := app.NewSyncEngine(&config.Download, fetcher, snapshots, ledger, batchMgr, logAdapter.PlaylistSync())

	router := api.SetupRouter(batchMgr, syncEngine, logAdapter, config.Storage.LogsDir)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal")

	log.Info("Shutting down server...")

	// Stop running batches first so their final stats are persisted.
	batchMgr.StopAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
