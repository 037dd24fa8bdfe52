package cmd

import (
	"fmt"
	"os"

	"github.com/sagebind/robo-ftp/internal/autostart"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [source] [target]",
	Short: "Register the watch daemon to start on login",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Re-use the invocation verbatim so every deploy flag survives
		// into the service definition.
		watchArgs := append([]string{"watch"}, os.Args[2:]...)

		as := autostart.New()
		if err := as.Install(execPath, watchArgs); err != nil {
			return err
		}

		fmt.Println("robo-ftp watch daemon registered for autostart")
		return nil
	},
}

func init() {
	addDeployFlags(installCmd, &deployFlags{})
	rootCmd.AddCommand(installCmd)
}
