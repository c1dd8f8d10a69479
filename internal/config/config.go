package config

import (
	"os"
	"strconv"

	"goqc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Facility FacilityConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort string
	UIPort  string
	GinMode string
}

// DatabaseConfig holds database connection settings. Postgres is
// optional: without DATABASE_URL, verdicts live in the in-memory
// session store only.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// DataConfig holds data processing settings
type DataConfig struct {
	ExportDir string
	TrendSeed int64
}

// FacilityConfig holds the facility and scanner identity used in
// reports. Free text; the core never interprets these.
type FacilityConfig struct {
	Name         string
	Address      string
	Location     string
	XrayLicense  string
	Manufacturer string
	Model        string
	Serial       string
	Physicist    string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			APIPort: getEnvOrDefault("API_PORT", "8080"),
			UIPort:  getEnvOrDefault("UI_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: loadDatabaseConfig(),
		Data: DataConfig{
			ExportDir: getEnvOrDefault("EXPORT_DIR", "exports"),
			TrendSeed: int64(getEnvIntOrDefault("TREND_SEED", 0)),
		},
		Facility: FacilityConfig{
			Name:         getEnvOrDefault("FACILITY_NAME", ""),
			Address:      getEnvOrDefault("FACILITY_ADDRESS", ""),
			Location:     getEnvOrDefault("FACILITY_LOCATION", ""),
			XrayLicense:  getEnvOrDefault("FACILITY_XRAY_LICENSE", ""),
			Manufacturer: getEnvOrDefault("SCANNER_MANUFACTURER", ""),
			Model:        getEnvOrDefault("SCANNER_MODEL", ""),
			Serial:       getEnvOrDefault("SCANNER_SERIAL", ""),
			Physicist:    getEnvOrDefault("PHYSICIST_NAME", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	return DatabaseConfig{
		URL:     url,
		Enabled: url != "",
	}
}

func validateConfig(config *Config) error {
	if config.Server.APIPort == "" {
		return errors.ConfigInvalid("API_PORT cannot be empty")
	}
	if config.Server.UIPort == "" {
		return errors.ConfigInvalid("UI_PORT cannot be empty")
	}
	if config.Server.APIPort == config.Server.UIPort {
		return errors.ConfigInvalid("API_PORT and UI_PORT must differ")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
