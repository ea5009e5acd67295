// Package cli implements the positions admin command.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ammiranda/position_service/config"
	"github.com/ammiranda/position_service/internal/app"
)

type options struct {
	envFile string
	verbose bool
}

// NewRootCmd builds the positions command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "positions",
		Short: "Inspect and reorder grid positions",
		Long: `positions reads and rewrites the dense ordering of rows that share a parent.
It uses the same configuration as the HTTP service: DB_DRIVER, DB_PREFIX,
POSITION_DEFINITIONS_PATH and friends, optionally loaded from an env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newGridsCmd(opts),
		newListCmd(opts),
		newReorderCmd(opts),
		newMigrateCmd(opts),
	)
	return rootCmd
}

// Execute runs the positions command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func (o *options) provider(ctx context.Context) (config.Provider, *logrus.Logger, error) {
	cfgProvider, err := config.NewProvider(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating config provider: %w", err)
	}

	logger := app.NewLogger(cfgProvider.GetEnvironment())
	if !o.verbose {
		logger.SetLevel(logrus.WarnLevel)
	}
	return cfgProvider, logger, nil
}

func (o *options) build(ctx context.Context) (*app.App, error) {
	cfgProvider, logger, err := o.provider(ctx)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfgProvider, logger)
}
