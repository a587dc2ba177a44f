package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ScenarioPath != "" {
		t.Fatalf("expected empty scenario path, got %q", cfg.ScenarioPath)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("WORLDLINE_STUDIO_SCENARIO_PATH", "/tmp/scenes.lua")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ScenarioPath != "/tmp/scenes.lua" {
		t.Fatalf("scenario path = %q", cfg.ScenarioPath)
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("WORLDLINE_STUDIO_SCENARIO_PATH", "/tmp/from-env.lua")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-scenarios", "/tmp/from-flag.lua"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ScenarioPath != "/tmp/from-flag.lua" {
		t.Fatalf("scenario path = %q", cfg.ScenarioPath)
	}
}
