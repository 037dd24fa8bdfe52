package cmd

import (
	"fmt"
	"os"

	"github.com/sagebind/robo-ftp/internal/deploy"
	"github.com/sagebind/robo-ftp/internal/ftp"
	"github.com/sagebind/robo-ftp/internal/gitrepo"
	"github.com/sagebind/robo-ftp/internal/logger"
	"github.com/sagebind/robo-ftp/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type deployFlags struct {
	host     string
	port     int
	user     string
	password string
	secure   bool
	includes []string
	excludes []string
	extras   []string
	skipSize bool
	skipTime bool
	git      bool
	dryRun   bool
	mirror   bool
}

func addDeployFlags(cmd *cobra.Command, f *deployFlags) {
	cmd.Flags().StringVar(&f.host, "host", "", "FTP server host (required)")
	cmd.Flags().IntVar(&f.port, "port", 0, "FTP server port")
	cmd.Flags().StringVar(&f.user, "user", "anonymous", "FTP user")
	cmd.Flags().StringVar(&f.password, "password", "", "FTP password (or ROBOFTP_PASSWORD)")
	cmd.Flags().BoolVar(&f.secure, "secure", false, "Use explicit TLS (FTPS)")
	cmd.Flags().StringSliceVar(&f.includes, "include", nil, "Include pattern, repeatable")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "Exclude pattern, repeatable")
	cmd.Flags().StringSliceVar(&f.extras, "extra", nil, "Extra file to deploy, repeatable")
	cmd.Flags().BoolVar(&f.skipSize, "skip-equal-size", false, "Skip files whose remote size matches")
	cmd.Flags().BoolVar(&f.skipTime, "skip-unmodified", false, "Skip files the remote already has at least as new")
	cmd.Flags().BoolVar(&f.git, "git", false, "Incremental mode: deploy the git diff since the last deployed revision")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report the plan without touching the remote")
	cmd.Flags().BoolVar(&f.mirror, "mirror", false, "Leave existing remote files alone when no skip policy is enabled")

	_ = cmd.MarkFlagRequired("host")
}

func (f *deployFlags) build(source, target string) (deploy.Config, error) {
	password := f.password
	if password == "" {
		password = os.Getenv("ROBOFTP_PASSWORD")
	}

	port := f.port
	if port == 0 {
		port = cfg.Port
	}

	return deploy.NewBuilder().
		Host(f.host).
		Port(port).
		Credentials(f.user, password).
		Secure(f.secure).
		SourceRoot(source).
		TargetRoot(target).
		Include(f.includes...).
		Exclude(f.excludes...).
		ExtraFile(f.extras...).
		SkipEqualSize(f.skipSize).
		SkipUnmodified(f.skipTime).
		Incremental(f.git).
		DryRun(f.dryRun).
		Overwrite(!f.mirror).
		Build()
}

// runDeploy performs one full run over a fresh session: dial, login,
// deploy, quit.
func runDeploy(runCfg deploy.Config) (*deploy.Report, error) {
	var rev deploy.Revisions
	if runCfg.Incremental {
		repo, err := gitrepo.Open(runCfg.SourceRoot)
		if err != nil {
			return nil, deploy.RevisionError.Wrap(err)
		}
		rev = repo
	}

	client, err := ftp.Dial(runCfg.Host, runCfg.Port, runCfg.Secure)
	if err != nil {
		return nil, deploy.ConnectionError.Wrap(err)
	}

	defer func(client *ftp.Client) {
		_ = client.Quit()
	}(client)

	if err := client.Login(runCfg.User, runCfg.Password); err != nil {
		return nil, deploy.ConnectionError.Wrap(err)
	}

	return deploy.New(runCfg, client, rev).Run(), nil
}

var deployFlagsOnce deployFlags

var deployCmd = &cobra.Command{
	Use:   "deploy [source] [target]",
	Short: "Deploy a directory to a remote FTP path once",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		runCfg, err := deployFlagsOnce.build(args[0], args[1])
		if err != nil {
			return err
		}

		logger.Log.Info("starting deploy",
			zap.String("source", runCfg.SourceRoot),
			zap.String("target", runCfg.TargetRoot),
			zap.String("host", runCfg.Host),
			zap.Bool("dry_run", runCfg.DryRun))

		report, err := runDeploy(runCfg)
		if err != nil {
			report = &deploy.Report{Fatal: err}
		}

		repo := repository.NewDeploymentRepository()
		if err := repo.Save(runCfg, report); err != nil {
			logger.Log.Warn("failed to save history",
				zap.Error(err))
		}

		return printReport(runCfg, report)
	},
}

func printReport(runCfg deploy.Config, report *deploy.Report) error {
	switch report.Outcome() {
	case deploy.OutcomeFatal:
		return report.Fatal

	case deploy.OutcomePartial:
		fmt.Printf("completed with errors: %d uploaded, %d skipped, %d failed\n",
			report.Uploaded, report.Skipped, report.Failed)
		for _, res := range report.FailedResults() {
			fmt.Printf("  ✗ %s: %v\n", res.Entry.RelPath, res.Err)
		}
		return fmt.Errorf("%d entries failed", report.Failed)
	}

	prefix := "done"
	if runCfg.DryRun {
		prefix = "dry-run"
	}

	fmt.Printf("%s: %d uploaded, %d skipped, %d dirs created\n",
		prefix, report.Uploaded, report.Skipped, report.CreatedDirs)
	return nil
}

func init() {
	addDeployFlags(deployCmd, &deployFlagsOnce)
	rootCmd.AddCommand(deployCmd)
}
