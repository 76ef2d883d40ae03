package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/common/database"
	"github.com/rasheedharab/PayGuestMarketplace/internal/common/logger"
	"github.com/rasheedharab/PayGuestMarketplace/internal/config"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "payguest-migrate",
		Short:        "Apply and inspect PayGuest schema migrations",
		SilenceUsage: true,
	}
	timeout := rootCmd.PersistentFlags().Duration("timeout", 2*time.Minute, "overall timeout")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := config.Load()
				log, err := logger.NewLogger(cfg.Log.Level, "console", "payguest-migrate")
				if err != nil {
					return err
				}
				defer log.Sync()

				db, err := database.NewPostgresDB(&cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close(db)

				ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
				defer cancel()
				applied, err := repository.Migrate(ctx, db, log)
				if err != nil {
					return err
				}
				log.Info("Migrations applied", zap.Strings("versions", applied))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := config.Load()
				db, err := database.NewPostgresDB(&cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close(db)

				ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
				defer cancel()
				migrations, err := repository.MigrationStatus(ctx, db)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range migrations {
					state := "pending"
					if m.Applied && m.AppliedAt != nil {
						state = "applied " + m.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%-32s %s\n", m.Version, state)
				}
				return nil
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
