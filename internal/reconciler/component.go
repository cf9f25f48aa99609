// Package reconciler wraps the engine in the daemon component lifecycle:
// initial load with retry, drift polling while running, clean teardown on
// stop.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentinelhaus/confd/pkg/component"
	"github.com/sentinelhaus/confd/pkg/engine"
	"github.com/sentinelhaus/confd/pkg/logger"
)

type Component struct {
	*component.Base

	logger  *slog.Logger
	engine  *engine.Engine
	retries int
	backoff time.Duration
}

type Config struct {
	Engine      *engine.Engine
	LoadRetries int
	LoadBackoff time.Duration
}

func New(cfg Config) *Component {
	retries := cfg.LoadRetries
	if retries <= 0 {
		retries = 1
	}
	backoff := cfg.LoadBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	return &Component{
		Base:    component.NewBase("reconciler"),
		logger:  logger.Get(logger.Reconciler),
		engine:  cfg.Engine,
		retries: retries,
		backoff: backoff,
	}
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		lastErr = c.engine.Load(c.Ctx)
		if lastErr == nil {
			break
		}
		c.logger.Warn("Initial load failed", "attempt", attempt, "error", lastErr)
		if attempt < c.retries {
			select {
			case <-c.Ctx.Done():
				return c.Ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
	if lastErr != nil {
		return fmt.Errorf("load configuration after %d attempts: %w", c.retries, lastErr)
	}

	if err := c.engine.Start(c.Ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	c.logger.Info("Reconciler started")
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.engine.Stop()
	c.StopContext()
	c.logger.Info("Reconciler stopped")
	return nil
}
