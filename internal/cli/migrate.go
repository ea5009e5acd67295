package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammiranda/position_service/migrations"
	"github.com/ammiranda/position_service/repository"
)

func newMigrateCmd(opts *options) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRepository(cmd.Context(), opts, func(repo repository.Repository) error {
					if err := migrations.Up(repo.DB(), repo.Dialect().Name(), migrations.WithTablePrefix(repo.TablePrefix())); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRepository(cmd.Context(), opts, func(repo repository.Repository) error {
					if err := migrations.Down(repo.DB(), repo.Dialect().Name(), migrations.WithTablePrefix(repo.TablePrefix())); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migration rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRepository(cmd.Context(), opts, func(repo repository.Repository) error {
					version, err := migrations.Version(repo.DB(), repo.Dialect().Name(), migrations.WithTablePrefix(repo.TablePrefix()))
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), version)
					return nil
				})
			},
		},
	)
	return migrateCmd
}

// withRepository opens the configured database without migrating it
func withRepository(ctx context.Context, opts *options, fn func(repository.Repository) error) error {
	cfgProvider, _, err := opts.provider(ctx)
	if err != nil {
		return err
	}

	repo, err := repository.New(ctx, cfgProvider)
	if err != nil {
		return err
	}
	if err := repo.Open(ctx); err != nil {
		return err
	}
	defer repo.Cleanup(ctx)

	return fn(repo)
}
