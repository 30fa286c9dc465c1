package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/aquamon/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current system status and alert settings",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("database-url", "", "PostgreSQL connection string (or set AQUAMON_DATABASE_URL)")
	statusCmd.Flags().String("db-host", "", "PostgreSQL host (alternative to --database-url)")
	statusCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	statusCmd.Flags().String("db-user", "postgres", "PostgreSQL user")
	statusCmd.Flags().String("db-password", "", "PostgreSQL password")
	statusCmd.Flags().String("db-name", "aquamon", "PostgreSQL database name")
	statusCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")

	_ = viper.BindPFlag("database.url", statusCmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("database.host", statusCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("database.port", statusCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("database.user", statusCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("database.password", statusCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("database.name", statusCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("database.sslmode", statusCmd.Flags().Lookup("db-sslmode"))
}

func runStatus(_ *cobra.Command, _ []string) error {
	logger := GetLogger("status")

	storeCfg, err := storeConfigFromViper(logger, nil)
	if err != nil {
		return err
	}

	db, err := store.Open(storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	ctx := context.Background()

	status, err := db.GetStatus(ctx)
	if err != nil {
		return err
	}

	settings, err := db.GetAlertSettings(ctx)
	if err != nil {
		return err
	}

	out := struct {
		Status        *store.SystemStatus  `json:"status"`
		AlertSettings *store.AlertSettings `json:"alertSettings"`
	}{
		Status:        status,
		AlertSettings: settings,
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}
