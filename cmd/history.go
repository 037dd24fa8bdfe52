package cmd

import (
	"fmt"

	"github.com/sagebind/robo-ftp/internal/model"
	"github.com/sagebind/robo-ftp/internal/repository"
	"github.com/spf13/cobra"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewDeploymentRepository()

		deployments, err := repo.GetRecent(historyN)
		if err != nil {
			return err
		}

		if len(deployments) == 0 {
			fmt.Println("no deployments yet")
			return nil
		}

		for _, d := range deployments {
			status := "✓"
			if d.Status != model.DeploySuccess {
				status = "✗"
			}

			mode := ""
			if d.DryRun {
				mode = " (dry-run)"
			}

			rev := d.Revision
			if len(rev) > 8 {
				rev = rev[:8]
			}

			fmt.Printf("%s [%s] %-8s %s -> ftp://%s%s%s\n",
				status,
				d.FinishedAt.Format("2006-01-02 15:04:05"),
				d.Status,
				rev,
				d.Host,
				d.TargetRoot,
				mode,
			)
			fmt.Printf("    %d uploaded, %d skipped, %d failed\n",
				d.Uploaded, d.Skipped, d.Failed)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of deployments to show")
	rootCmd.AddCommand(historyCmd)
}
