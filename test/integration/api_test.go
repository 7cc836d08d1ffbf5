//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/api"
	"github.com/yourusername/vidbatch-go/internal/app"
	"github.com/yourusername/vidbatch-go/internal/domain"
	"github.com/yourusername/vidbatch-go/internal/infrastructure"
	"github.com/yourusername/vidbatch-go/pkg/logger"
)

type testEnv struct {
	server *httptest.Server
	dir    string
}

// writeFakeDownloader writes a shell script standing in for yt-dlp.
func writeFakeDownloader(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// setupTestServer wires the full stack behind an httptest server: SQLite
// task records, JSON ledger and snapshot stores, and the given fake
// downloader script for both downloads and playlist fetches.
func setupTestServer(t *testing.T, downloaderScript string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	binary := writeFakeDownloader(t, dir, downloaderScript)

	cfg := domain.DefaultConfig()
	cfg.Download.YTDLPBinary = binary
	cfg.Download.MaxRetries = 1
	cfg.Download.RetryDelay = 10 * time.Millisecond
	cfg.Download.ItemDelay = time.Millisecond
	cfg.Download.TerminateGrace = time.Second
	cfg.Download.Defaults.DownloadPath = dir

	repo, err := infrastructure.NewSQLiteBatchRepository(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ledger, err := infrastructure.NewJSONLedgerStore(filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	snapshots, err := infrastructure.NewJSONSnapshotStore(filepath.Join(dir, "snapshots.json"))
	require.NoError(t, err)

	manager := app.NewBatchManager(cfg, repo, ledger, nil, zap.NewNop())
	fetcher := infrastructure.NewYTDLPPlaylistFetcher(binary, 10*time.Second)
	engine := app.NewSyncEngine(&cfg.Download, fetcher, snapshots, ledger, manager, zap.NewNop())

	adapter := logger.NewSingleLoggerAdapter(zap.NewNop())
	router := api.SetupRouter(manager, engine, adapter, filepath.Join(dir, "logs"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, dir: dir}
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

// waitForStatus polls the batch endpoint until the task reaches the
// given status or the deadline passes.
func waitForStatus(t *testing.T, env *testEnv, id string, status domain.BatchStatus) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		_, task := getJSON(t, env.server.URL+"/api/v1/batches/"+id)
		if task["status"] == string(status) {
			return task
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("batch %s did not reach status %s", id, status)
	return nil
}

func TestAPI_RunBatchToCompletion(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	resp, result := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls": []string{
			"https://www.youtube.com/watch?v=aaa111bbb22",
			"https://www.youtube.com/watch?v=ccc333ddd44",
		},
		"start": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id := result["id"].(string)
	task := waitForStatus(t, env, id, domain.BatchCompleted)

	stats := task["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(2), stats["successful"])
	assert.Equal(t, float64(0), stats["failed"])
}

func TestAPI_CreateThenStart(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	resp, result := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls": []string{"https://www.youtube.com/watch?v=aaa111bbb22"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "queued", result["status"])

	id := result["id"].(string)
	startResp, _ := postJSON(t, env.server.URL+"/api/v1/batches/"+id+"/start", nil)
	require.Equal(t, http.StatusOK, startResp.StatusCode)

	waitForStatus(t, env, id, domain.BatchCompleted)
}

func TestAPI_RejectsEmptyURLs(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	resp, _ := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls":  []string{},
		"start": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListBatchesWithStatusFilter(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	_, first := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls":  []string{"https://www.youtube.com/watch?v=aaa111bbb22"},
		"start": true,
	})
	waitForStatus(t, env, first["id"].(string), domain.BatchCompleted)

	postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls": []string{"https://www.youtube.com/watch?v=ccc333ddd44"},
	})

	resp, err := http.Get(env.server.URL + "/api/v1/batches?status=queued")
	require.NoError(t, err)
	defer resp.Body.Close()

	var tasks []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "queued", tasks[0]["status"])
}

func TestAPI_StopRunningBatch(t *testing.T) {
	env := setupTestServer(t, "sleep 30\n")

	_, result := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls":  []string{"https://www.youtube.com/watch?v=aaa111bbb22"},
		"start": true,
	})
	id := result["id"].(string)
	waitForStatus(t, env, id, domain.BatchRunning)

	stopResp, _ := postJSON(t, env.server.URL+"/api/v1/batches/"+id+"/stop", nil)
	require.Equal(t, http.StatusOK, stopResp.StatusCode)

	waitForStatus(t, env, id, domain.BatchStopped)
}

func TestAPI_DeleteBatch(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	_, result := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls": []string{"https://www.youtube.com/watch?v=aaa111bbb22"},
	})
	id := result["id"].(string)

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/api/v1/batches/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, _ := getJSON(t, env.server.URL+"/api/v1/batches/"+id)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestAPI_GetStats(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	_, result := postJSON(t, env.server.URL+"/api/v1/batches", map[string]interface{}{
		"urls": []string{
			"https://www.youtube.com/watch?v=aaa111bbb22",
			"https://www.youtube.com/watch?v=ccc333ddd44",
		},
		"start": true,
	})
	waitForStatus(t, env, result["id"].(string), domain.BatchCompleted)

	resp, stats := getJSON(t, env.server.URL+"/api/v1/batches/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	aggregate := stats["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), aggregate["total"])
	assert.Equal(t, float64(2), aggregate["successful"])
	assert.NotEmpty(t, stats["summary"])
	assert.Equal(t, float64(0), stats["active"])
}

func TestAPI_Health(t *testing.T) {
	env := setupTestServer(t, "exit 0\n")

	resp, result := getJSON(t, env.server.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", result["status"])
}
