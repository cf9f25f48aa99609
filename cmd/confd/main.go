package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinelhaus/confd/internal/exporter"
	"github.com/sentinelhaus/confd/internal/reconciler"
	"github.com/sentinelhaus/confd/pkg/component"
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
	"github.com/sentinelhaus/confd/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/confd.yaml", "Path to daemon configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("confd", version.Full())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.Components)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting confd", "version", version.Version, "store", cfg.Store.Backend)

	var store source.Store
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := sqlitesource.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		// First run: install an empty skeleton so the engine has a
		// document to load.
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

	registry := prometheus.NewRegistry()

	eng := engine.New(engine.Options{
		Source:         store,
		Validator:      validator.NewDefaultRegistry(),
		Security:       securityProvider,
		Bus:            bus,
		DebounceWindow: cfg.Engine.DebounceWindow.Std(),
		DriftInterval:  cfg.Engine.DriftInterval.Std(),
		RequestTimeout: cfg.Engine.RequestTimeout.Std(),
		Registerer:     registry,
	})

	orchestrator := component.NewOrchestrator()
	orchestrator.Register(reconciler.New(reconciler.Config{
		Engine:      eng,
		LoadRetries: cfg.Engine.LoadRetries,
		LoadBackoff: cfg.Engine.LoadBackoff.Std(),
	}))

	if cfg.Exporter.Enabled {
		orchestrator.Register(exporter.New(exporter.Config{
			Listen:   cfg.Exporter.Listen,
			Registry: registry,
			Bus:      bus,
		}))
	}

	ctx := context.Background()
	if err := orchestrator.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("confd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	mainLog.Info("Shutting down", "signal", sig.String())

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := orchestrator.Stop(stopCtx); err != nil {
		mainLog.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
