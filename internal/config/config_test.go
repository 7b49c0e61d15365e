package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DRIFTSIM_SEED", "DRIFTSIM_DB", "DRIFTSIM_LOG_LEVEL",
		"DRIFTSIM_LOG_TOKENS", "DRIFTSIM_LOG_AST", "DRIFTSIM_LOG_EVAL",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Seed != 0 || cfg.DBPath != "" {
		t.Errorf("defaults wrong: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q, want info", cfg.LogLevel)
	}
	if cfg.LogTokens || cfg.LogAST || cfg.LogEval {
		t.Errorf("debug toggles default on: %+v", cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DRIFTSIM_SEED", "12345")
	t.Setenv("DRIFTSIM_DB", "/tmp/runs.db")
	t.Setenv("DRIFTSIM_LOG_LEVEL", "debug")
	t.Setenv("DRIFTSIM_LOG_TOKENS", "true")
	t.Setenv("DRIFTSIM_LOG_AST", "1")
	t.Setenv("DRIFTSIM_LOG_EVAL", "false")

	cfg := Load()
	if cfg.Seed != 12345 {
		t.Errorf("seed = %d, want 12345", cfg.Seed)
	}
	if cfg.DBPath != "/tmp/runs.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if !cfg.LogTokens || !cfg.LogAST || cfg.LogEval {
		t.Errorf("toggles = %+v", cfg)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DRIFTSIM_SEED", "not-a-number")
	t.Setenv("DRIFTSIM_LOG_TOKENS", "maybe")
	cfg := Load()
	if cfg.Seed != 0 {
		t.Errorf("malformed seed parsed to %d", cfg.Seed)
	}
	if cfg.LogTokens {
		t.Errorf("malformed bool parsed to true")
	}
}

func TestEffectiveSeed(t *testing.T) {
	cfg := &Config{Seed: 99}
	if cfg.EffectiveSeed() != 99 {
		t.Errorf("explicit seed not honored")
	}
	derived := (&Config{}).EffectiveSeed()
	if derived == 0 {
		t.Errorf("derived seed is zero")
	}
}
