package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "vidbatch",
		Short: "VidBatch CLI - Batch video downloader and playlist tracker",
		Long:  `A command-line interface for managing batch video downloads and playlist synchronization.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(checkAllCmd)
	rootCmd.AddCommand(playlistsCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// settingsFromFlags collects the download settings flags shared by the
// batch and playlist commands. Unset flags are omitted so the server
// fills them from its configured defaults.
func settingsFromFlags(cmd *cobra.Command) map[string]interface{} {
	settings := map[string]interface{}{}
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		settings["download_path"] = path
	}
	if quality, _ := cmd.Flags().GetString("quality"); quality != "" {
		settings["quality"] = quality
	}
	if cookies, _ := cmd.Flags().GetBool("cookies"); cookies {
		settings["use_cookies"] = true
	}
	if subtitle, _ := cmd.Flags().GetBool("subtitle"); subtitle {
		settings["download_subtitle"] = true
	}
	if subtitleOnly, _ := cmd.Flags().GetBool("subtitle-only"); subtitleOnly {
		settings["subtitle_only"] = true
	}
	if timeout, _ := cmd.Flags().GetInt("timeout"); timeout > 0 {
		settings["download_timeout"] = timeout
	}
	return settings
}

func createBatch(cmd *cobra.Command, urls []string, start bool) {
	ensureServer()

	payload := map[string]interface{}{
		"urls":     urls,
		"settings": settingsFromFlags(cmd),
		"start":    start,
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(serverURL+"/api/v1/batches", "application/json", bytes.NewBuffer(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if start {
		fmt.Printf("Batch started!\n")
	} else {
		fmt.Printf("Batch created!\n")
	}
	fmt.Printf("ID: %s\n", result["id"])
	fmt.Printf("URLs: %d\n", len(urls))
	fmt.Printf("Status: %s\n", result["status"])
}

var runCmd = &cobra.Command{
	Use:   "run [urls...]",
	Short: "Create a batch and start downloading immediately",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		createBatch(cmd, args, true)
	},
}

var addCmd = &cobra.Command{
	Use:   "add [urls...]",
	Short: "Create a batch without starting it",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		createBatch(cmd, args, false)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all batch tasks",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/batches"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var tasks []map[string]interface{}
		json.Unmarshal(body, &tasks)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tURLS\tOK\tFAILED\tSKIPPED\tCREATED")
		for _, task := range tasks {
			urls, _ := task["urls"].(string)
			stats, _ := task["stats"].(map[string]interface{})
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%v\t%v\t%s\n",
				truncate(task["id"].(string), 8),
				task["status"],
				len(strings.Split(urls, "\n")),
				stats["successful"],
				stats["failed"],
				stats["skipped"],
				task["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/batches/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result map[string]interface{}
		json.Unmarshal(body, &result)

		fmt.Println("Download Statistics:")
		fmt.Printf("  %s\n", result["summary"])
		fmt.Printf("  Active batches: %v\n", result["active"])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get batch task details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/batches/" + id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var task map[string]interface{}
		json.Unmarshal(body, &task)
		stats, _ := task["stats"].(map[string]interface{})
		urls, _ := task["urls"].(string)

		fmt.Printf("Batch Details:\n")
		fmt.Printf("  ID:      %s\n", task["id"])
		fmt.Printf("  Status:  %s\n", task["status"])
		fmt.Printf("  Created: %s\n", task["created_at"])
		if task["error_message"] != nil {
			fmt.Printf("  Error:   %s\n", task["error_message"])
		}
		fmt.Printf("  Stats:   %v total, %v ok, %v failed, %v skipped\n",
			stats["total"], stats["successful"], stats["failed"], stats["skipped"])
		fmt.Printf("  URLs:\n")
		for _, u := range strings.Split(urls, "\n") {
			fmt.Printf("    %s\n", u)
		}
	},
}

func batchAction(id, action, message string) {
	ensureServer()
	resp, err := http.Post(serverURL+"/api/v1/batches/"+id+"/"+action, "application/json", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	fmt.Println(message)
}

var startCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start a queued batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batchAction(args[0], "start", "Batch started")
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [id]",
	Short: "Pause a running batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batchAction(args[0], "pause", "Batch paused")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume a paused batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batchAction(args[0], "resume", "Batch resumed")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop a running batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batchAction(args[0], "stop", "Batch stopping")
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a batch task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/batches/"+id, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Batch deleted")
	},
}

func printSyncReport(report map[string]interface{}) {
	fmt.Printf("Playlist: %s\n", report["playlist_id"])
	if report["playlist_title"] != nil {
		fmt.Printf("Title:    %s\n", report["playlist_title"])
	}
	fmt.Printf("Outcome:  %s\n", report["outcome"])
	printItems := func(label string, key string) {
		items, _ := report[key].([]interface{})
		if len(items) == 0 {
			return
		}
		fmt.Printf("%s (%d):\n", label, len(items))
		for _, item := range items {
			fmt.Printf("  %v\n", item)
		}
	}
	printItems("Added", "added")
	printItems("Removed from remote", "removed_from_remote")
	printItems("Missing locally", "missing_locally")
	if report["task_id"] != nil {
		fmt.Printf("Download batch: %s\n", report["task_id"])
	}
	if report["error"] != nil {
		fmt.Printf("Error: %s\n", report["error"])
	}
}

var checkCmd = &cobra.Command{
	Use:   "check [playlist-url]",
	Short: "Check a playlist for new or missing videos",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		download, _ := cmd.Flags().GetBool("download")

		payload := map[string]interface{}{
			"playlist_url":  args[0],
			"settings":      settingsFromFlags(cmd),
			"auto_download": download,
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/playlists/check", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var report map[string]interface{}
		json.Unmarshal(body, &report)

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", report["error"])
			os.Exit(1)
		}
		printSyncReport(report)
	},
}

var checkAllCmd = &cobra.Command{
	Use:   "check-all",
	Short: "Check every tracked playlist for updates",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		download, _ := cmd.Flags().GetBool("download")

		payload := map[string]interface{}{
			"settings":      settingsFromFlags(cmd),
			"auto_download": download,
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/playlists/check-all", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result map[string]interface{}
		json.Unmarshal(body, &result)

		reports, _ := result["reports"].([]interface{})
		fmt.Printf("Checked %v playlists\n", result["count"])
		for _, r := range reports {
			report, _ := r.(map[string]interface{})
			fmt.Println()
			printSyncReport(report)
		}
	},
}

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List tracked playlists",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/playlists")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result map[string]interface{}
		json.Unmarshal(body, &result)

		playlists, _ := result["playlists"].([]interface{})
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PLAYLIST\tVIDEOS\tPATH\tLAST CHECKED")
		for _, p := range playlists {
			playlist, _ := p.(map[string]interface{})
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\n",
				playlist["playlist_id"],
				playlist["video_count"],
				truncate(playlist["download_path"].(string), 40),
				playlist["last_checked"])
		}
		w.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (web-access, batch, sync, error)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		category := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		url := fmt.Sprintf("%s/api/v1/logs/%s?limit=%d", serverURL, category, limit)
		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		entries, _ := result["entries"].([]interface{})
		for _, e := range entries {
			entry, _ := e.(map[string]interface{})
			fmt.Printf("%s [%s] %s\n", entry["ts"], entry["level"], entry["msg"])
		}
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, addCmd, checkCmd, checkAllCmd} {
		cmd.Flags().StringP("path", "p", "", "Download directory")
		cmd.Flags().StringP("quality", "q", "", "Video quality (best, 1080p, 720p, 480p)")
		cmd.Flags().Bool("cookies", false, "Use browser cookies for authentication")
		cmd.Flags().Bool("subtitle", false, "Download subtitles alongside video")
		cmd.Flags().Bool("subtitle-only", false, "Download subtitles only, skip video")
		cmd.Flags().Int("timeout", 0, "Per-video download timeout in seconds")
	}
	checkCmd.Flags().BoolP("download", "d", false, "Download detected changes immediately")
	checkAllCmd.Flags().BoolP("download", "d", false, "Download detected changes immediately")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of log entries")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
