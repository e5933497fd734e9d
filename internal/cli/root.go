package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ljiulong/boxyy/internal/config"
	"github.com/ljiulong/boxyy/internal/domain"
	"github.com/ljiulong/boxyy/internal/engine"
	"github.com/ljiulong/boxyy/internal/jobs"
)

var (
	jsonOut   bool
	verbose   bool
	scopeFlag string
	dirFlag   string
)

// Execute runs the CLI and returns the process exit code: 0 on success,
// 1 on an operational error, 2 on a usage error.
func Execute() int {
	rootCmd := &cobra.Command{
		Use:   "boxy",
		Short: "One front end for every package manager on the machine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Parsing and argument validation already passed; anything
			// that fails from here on is operational, not usage.
			cmd.Root().SilenceUsage = true
		},
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Machine-readable output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "global", "Operation scope: global or local")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Project directory for local scope")

	rootCmd.AddCommand(
		newScanCmd(),
		newListCmd(),
		newSearchCmd(),
		newInfoCmd(),
		newInstallCmd(),
		newUpdateCmd(),
		newUninstallCmd(),
		newOutdatedCmd(),
		newRefreshCmd(),
		newJobsCmd(),
		newLogsCmd(),
		newCancelCmd(),
		newClearCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	printError(err)
	if !rootCmd.SilenceUsage {
		return 2
	}
	return 1
}

func newEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	eng := engine.New(cfg, engine.Options{
		Logger:    logger,
		Publisher: jobs.LogPublisher{Log: logger},
	})
	return eng, cfg, nil
}

func currentScope() (domain.Scope, error) {
	return domain.ParseScope(scopeFlag, dirFlag)
}
