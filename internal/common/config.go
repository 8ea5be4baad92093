// Package common provides shared utilities for Riskcore
package common

import (
	"fmt"
	"os"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Riskcore
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Engine      EngineConfig  `toml:"engine"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string  `toml:"host"`
	Port          int     `toml:"port"`
	RatePerSecond float64 `toml:"rate_per_second"` // request rate limit, 0 disables
	RateBurst     int     `toml:"rate_burst"`
}

// EngineConfig holds the analytics engine defaults. Every knob here is an
// explicit parameter of the engine call; this struct only supplies the
// documented defaults, never process-wide state.
type EngineConfig struct {
	Confidence          float64 `toml:"confidence"`           // default 0.95
	HorizonDays         int     `toml:"horizon_days"`         // default 1
	AnnualizationFactor float64 `toml:"annualization_factor"` // default 252 (daily data)
	MonteCarloPaths     int     `toml:"monte_carlo_paths"`    // default 10000
	MonteCarloSeed      int64   `toml:"monte_carlo_seed"`
	VolatilityWindow    int     `toml:"volatility_window"`   // default 21
	LiquidityWindow     int     `toml:"liquidity_window"`    // default 21
	AnomalyWindow       int     `toml:"anomaly_window"`      // default 20
	AnomalyZThreshold   float64 `toml:"anomaly_z_threshold"` // default 4.0
	RiskFreeRate        float64 `toml:"risk_free_rate"`      // annualized, default 0
	FrontierPoints      int     `toml:"frontier_points"`     // default 25
	MaxIterations       int     `toml:"max_iterations"`      // optimizer budget, default 10000
	ReturnMethod        string  `toml:"return_method"`       // "simple" or "log", default "simple"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			RatePerSecond: 20,
			RateBurst:     40,
		},
		Engine: EngineConfig{
			Confidence:          0.95,
			HorizonDays:         1,
			AnnualizationFactor: 252,
			MonteCarloPaths:     10000,
			MonteCarloSeed:      42,
			VolatilityWindow:    21,
			LiquidityWindow:     21,
			AnomalyWindow:       20,
			AnomalyZThreshold:   4.0,
			RiskFreeRate:        0,
			FrontierPoints:      25,
			MaxIterations:       10000,
			ReturnMethod:        "simple",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RISKCORE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("RISKCORE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("RISKCORE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("RISKCORE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if seed := os.Getenv("RISKCORE_MC_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Engine.MonteCarloSeed = s
		}
	}

	if paths := os.Getenv("RISKCORE_MC_PATHS"); paths != "" {
		if n, err := strconv.Atoi(paths); err == nil && n > 0 {
			config.Engine.MonteCarloPaths = n
		}
	}
}
