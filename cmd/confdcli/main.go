package main

import (
	"context"
	"flag"
	"log"

	"github.com/sentinelhaus/confd/pkg/config"
	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/engine"
	"github.com/sentinelhaus/confd/pkg/events/local"
	"github.com/sentinelhaus/confd/pkg/logger"
	"github.com/sentinelhaus/confd/pkg/security"
	"github.com/sentinelhaus/confd/pkg/source"
	filesource "github.com/sentinelhaus/confd/pkg/source/file"
	sqlitesource "github.com/sentinelhaus/confd/pkg/source/sqlite"
	"github.com/sentinelhaus/confd/pkg/validator"
)

func main() {
	configPath := flag.String("config", "configs/confd.yaml", "Path to daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Keep the session quiet; notifications render through the shell.
	logger.Configure(cfg.Logging.Format, "error", nil)

	var store source.Store
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := sqlitesource.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		if err := s.Seed(context.Background(), document.Document{
			"mqtt":     map[string]any{},
			"security": map[string]any{},
			"zones":    []any{},
		}); err != nil {
			log.Fatalf("Failed to seed sqlite store: %v", err)
		}
		store = s
	default:
		store = filesource.New(cfg.Store.Path)
	}
	defer store.Close()

	level, err := security.ParseLevel(cfg.Security.Level)
	if err != nil {
		log.Fatalf("Invalid security level: %v", err)
	}
	securityProvider := security.NewStatic(level)

	bus := local.NewBus()
	defer bus.Close()

	eng := engine.New(engine.Options{
		Source:         store,
		Validator:      validator.NewDefaultRegistry(),
		Security:       securityProvider,
		Bus:            bus,
		DebounceWindow: cfg.Engine.DebounceWindow.Std(),
		DriftInterval:  cfg.Engine.DriftInterval.Std(),
		RequestTimeout: cfg.Engine.RequestTimeout.Std(),
	})

	cli := NewCLI(eng, store, securityProvider, bus)
	if err := cli.Run(); err != nil {
		log.Fatalf("CLI error: %v", err)
	}
}
