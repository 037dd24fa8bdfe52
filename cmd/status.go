package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sagebind/robo-ftp/internal/model"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View watch daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap model.WatchSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		lastRun := "-"
		if snap.LastRun != nil {
			lastRun = snap.LastRun.Format("2006-01-02 15:04:05")
		}

		uptime := time.Since(snap.StartedAt).Round(time.Second)

		fmt.Printf("deploying %s -> ftp://%s%s\n", snap.SourceRoot, snap.Host, snap.TargetRoot)
		fmt.Printf("uptime:   %s\n", uptime)
		fmt.Printf("runs:     %d (last: %s, outcome: %s)\n", snap.Runs, lastRun, snap.LastOutcome)
		fmt.Printf("uploaded: %d  skipped: %d  failed: %d\n",
			snap.Uploaded, snap.Skipped, snap.Failed)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
