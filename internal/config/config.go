// Package config loads the process configuration from the environment,
// with an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	// Seed initializes the shared random generator; 0 means derive one
	// from PID and time.
	Seed int64
	// DBPath is the sqlite database for run records; empty disables
	// persistence.
	DBPath string
	// LogLevel is a logrus level name.
	LogLevel string

	// Independent debug toggles consulted by the scanner, parser, and
	// interpreter respectively.
	LogTokens bool
	LogAST    bool
	LogEval   bool
}

// Load reads configuration from environment variables, honoring a .env
// file in the working directory when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:   os.Getenv("DRIFTSIM_DB"),
		LogLevel: os.Getenv("DRIFTSIM_LOG_LEVEL"),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if seedStr := os.Getenv("DRIFTSIM_SEED"); seedStr != "" {
		if seed, err := strconv.ParseInt(seedStr, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	cfg.LogTokens = boolEnv("DRIFTSIM_LOG_TOKENS")
	cfg.LogAST = boolEnv("DRIFTSIM_LOG_AST")
	cfg.LogEval = boolEnv("DRIFTSIM_LOG_EVAL")
	return cfg
}

// EffectiveSeed resolves the seed, deriving one from PID and time when
// none was configured.
func (c *Config) EffectiveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return int64(os.Getpid())*1_000_003 + time.Now().UnixNano()%1_000_003
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
