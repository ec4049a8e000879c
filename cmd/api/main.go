package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "booking-api",
		Short:        "Medical appointment booking API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if !strings.EqualFold(cfg.Database.Driver, config.DriverPostgres) {
				return fmt.Errorf("migrate requires the %s driver", config.DriverPostgres)
			}

			db, err := postgres.NewDB(cmd.Context(), cfg.Database.ToPostgresConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Database.Name).Msg("Schema applied")
			return nil
		},
	}
}

// openStore returns the configured store and a func releasing it
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if strings.EqualFold(cfg.Database.Driver, config.DriverMemory) {
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database.ToPostgresConfig())
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), closeDB(db), nil
}

func closeDB(db *sqlx.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
