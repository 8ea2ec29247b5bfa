// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// SQLiteConfig holds SQLite backend settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// GridConfig holds hex tessellation settings.
type GridConfig struct {
	Resolution         int `json:"resolution" mapstructure:"resolution"`
	MaxCells           int `json:"maxCells" mapstructure:"maxCells"`
	NeighborhoodRadius int `json:"neighborhoodRadius" mapstructure:"neighborhoodRadius"`
}

// SimulationConfig holds simulation clock and gameplay policy settings.
type SimulationConfig struct {
	TickInterval     time.Duration `json:"tickInterval" mapstructure:"-"`
	ZoneCount        int           `json:"zoneCount" mapstructure:"zoneCount"`
	HomeThresholdKm  float64       `json:"homeThresholdKm" mapstructure:"homeThresholdKm"`
	StarvationPolicy string        `json:"starvationPolicy" mapstructure:"starvationPolicy"`
	PositionHistory  int           `json:"positionHistory" mapstructure:"positionHistory"`
}

// Load reads configuration from a JSON file in configDir and sets default
// values.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./terrahexlogs")

	viper.SetDefault("player.id", "local")
	viper.SetDefault("player.startingWood", 50)
	viper.SetDefault("player.startingIron", 30)
	viper.SetDefault("player.startingStone", 40)

	viper.SetDefault("grid.resolution", 14)
	viper.SetDefault("grid.maxCells", 200)
	viper.SetDefault("grid.neighborhoodRadius", 5)

	viper.SetDefault("simulation.tickInterval", "60s")
	viper.SetDefault("simulation.zoneCount", 15)
	viper.SetDefault("simulation.homeThresholdKm", 5.0)
	viper.SetDefault("simulation.starvationPolicy", "ignore")
	viper.SetDefault("simulation.positionHistory", 500)

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./terrahex.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "terrahex")

	viper.SetDefault("gateway.enabled", true)
	viper.SetDefault("gateway.listen", "127.0.0.1:8473")

	viper.SetDefault("position.source", "simulated")
	viper.SetDefault("position.interval", "5s")
	viper.SetDefault("position.originLat", 52.5200)
	viper.SetDefault("position.originLng", 13.4050)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "terrahex-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "terrahex-engine")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("terrahex.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetStorageConfig returns the typed storage configuration.
func GetStorageConfig() StorageConfig {
	var cfg StorageConfig
	if err := viper.UnmarshalKey("storage", &cfg); err != nil {
		return StorageConfig{Type: "sqlite", SQLite: SQLiteConfig{Path: "./terrahex.db"}}
	}
	return cfg
}

// GetGridConfig returns the typed tessellation configuration.
func GetGridConfig() GridConfig {
	var cfg GridConfig
	if err := viper.UnmarshalKey("grid", &cfg); err != nil {
		return GridConfig{Resolution: 14, MaxCells: 200, NeighborhoodRadius: 5}
	}
	return cfg
}

// GetSimulationConfig returns the typed simulation configuration.
// Durations are stored as strings in the config file; unparseable values
// fall back to the 60 s default.
func GetSimulationConfig() SimulationConfig {
	var cfg SimulationConfig
	if err := viper.UnmarshalKey("simulation", &cfg); err != nil {
		cfg = SimulationConfig{ZoneCount: 15, HomeThresholdKm: 5, StarvationPolicy: "ignore", PositionHistory: 500}
	}
	cfg.TickInterval = GetDuration("simulation.tickInterval", time.Minute)
	return cfg
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"-"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GetOTelConfig returns the typed OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	var cfg OTelConfig
	if err := viper.UnmarshalKey("otel", &cfg); err != nil {
		return OTelConfig{ServiceName: "terrahex-engine", BatchTimeout: 5 * time.Second, Insecure: true}
	}
	cfg.BatchTimeout = GetDuration("otel.batchTimeout", 5*time.Second)
	return cfg
}

// GetDuration parses a duration config value, returning fallback when the
// value is missing or malformed.
func GetDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float64 config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
