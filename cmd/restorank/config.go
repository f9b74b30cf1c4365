package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault(constants.ViperHTTPAddr, ":8080")
	viper.SetDefault(constants.ViperHTTPAllowOrigin, []string{})
	viper.SetDefault(constants.ViperDBDriver, constants.DriverSQLite)
	viper.SetDefault(constants.ViperDBDSN, "restorank.db")
	viper.SetDefault(constants.ViperLogLevel, "info")
	viper.SetDefault(constants.ViperPlacesBaseURL, "")
	viper.SetDefault(constants.ViperPlacesRateLimit, 5.0)
	viper.SetDefault(constants.ViperScheduleCron, "0 3 * * *")
	viper.SetDefault(constants.ViperScheduleTimezone, "UTC")
	viper.SetDefault(constants.ViperContactsConcurrency, 8)
	viper.SetDefault(constants.ViperContactsTimeout, 10*time.Second)
	viper.SetDefault(constants.ViperCurationTopN, 10)
}

// loadConfig reads config.yaml from path (or the working directory and
// /etc/restorank) and lets RESTORANK_* environment variables override it,
// e.g. RESTORANK_DB_DSN for db.dsn. A missing config file is not an error.
func loadConfig(path string) error {
	setDefaults()

	viper.SetEnvPrefix("restorank")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/restorank")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("viper.ReadInConfig: %w", err)
		}
	}

	if viper.GetString(constants.ViperSecretKey) == "" {
		return errors.New("admin.secret is required")
	}

	return nil
}
