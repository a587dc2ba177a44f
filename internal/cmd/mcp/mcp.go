// Package mcp parses MCP command flags and wires the worldline MCP server.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/louisbranch/worldline.studio/internal/platform/config"
	"github.com/louisbranch/worldline.studio/internal/platform/otel"
	"github.com/louisbranch/worldline.studio/internal/scenario"
	mcpservice "github.com/louisbranch/worldline.studio/internal/services/mcp/service"
	"github.com/louisbranch/worldline.studio/internal/telemetry"
	"github.com/louisbranch/worldline.studio/internal/worldline/pov"
	"github.com/louisbranch/worldline.studio/internal/worldline/registry"
	worldsvc "github.com/louisbranch/worldline.studio/internal/worldline/service"
)

// Config holds MCP command configuration.
type Config struct {
	ScenarioPath string `env:"WORLDLINE_STUDIO_SCENARIO_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ScenarioPath, "scenarios", cfg.ScenarioPath, "path to a Lua scene catalog script")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	var scenarios *scenario.Catalog
	if cfg.ScenarioPath != "" {
		scenarios, err = scenario.Load(cfg.ScenarioPath)
		if err != nil {
			return err
		}
		log.Printf("loaded %d scenes from %s", scenarios.Len(), cfg.ScenarioPath)
	}

	events := telemetry.NewEmitter(&telemetry.LogSink{})
	reg := registry.New(pov.NewManager(), events)
	worlds := worldsvc.New(reg, scenarios)

	server, err := mcpservice.NewServer(worlds)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
