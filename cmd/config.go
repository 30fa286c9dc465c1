package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"procodus.dev/aquamon/pkg/logger"
)

// InitConfig initializes Viper configuration. It supports reading from
// config files (config.yaml) and environment variables with the AQUAMON_
// prefix, so the database connection string can come from
// AQUAMON_DATABASE_URL.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory and /etc/aquamon/
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/aquamon/")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("AQUAMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFoundErr) {
			// Config file not found; rely on env vars and defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// GetLogger creates a slog.Logger based on configuration, tagged with the
// component name so service output stays attributable.
func GetLogger(component string) *slog.Logger {
	l := logger.New(&logger.Config{
		Level: logger.ParseLevel(viper.GetString("log.level")),
	})
	return logger.WithComponent(l, component)
}
