// Package exporter serves engine and bus metrics over HTTP for prometheus.
package exporter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelhaus/confd/pkg/component"
	"github.com/sentinelhaus/confd/pkg/events"
	"github.com/sentinelhaus/confd/pkg/logger"
)

type Component struct {
	*component.Base

	logger   *slog.Logger
	addr     string
	registry *prometheus.Registry
	bus      events.Bus
	server   *http.Server
}

type Config struct {
	Listen   string
	Registry *prometheus.Registry
	Bus      events.Bus
}

func New(cfg Config) *Component {
	return &Component{
		Base:     component.NewBase("exporter"),
		logger:   logger.Get(logger.Exporter),
		addr:     cfg.Listen,
		registry: cfg.Registry,
		bus:      cfg.Bus,
	}
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	c.registry.MustRegister(collectors.NewGoCollector())
	c.registry.MustRegister(newBusCollector(c.bus))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	c.server = &http.Server{
		Addr:    c.addr,
		Handler: mux,
	}

	c.Go(func() {
		c.logger.Info("Metrics server listening", "addr", c.addr)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server error", "error", err)
		}
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("Metrics server shutdown", "error", err)
		}
	}
	c.StopContext()
	return nil
}

type busCollector struct {
	bus       events.Bus
	published *prometheus.Desc
	dropped   *prometheus.Desc
}

func newBusCollector(bus events.Bus) *busCollector {
	return &busCollector{
		bus: bus,
		published: prometheus.NewDesc(
			"confd_events_published_total",
			"Events accepted by the notification bus",
			nil, nil,
		),
		dropped: prometheus.NewDesc(
			"confd_events_dropped_total",
			"Events dropped because the publish channel was full",
			nil, nil,
		),
	}
}

func (bc *busCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bc.published
	ch <- bc.dropped
}

func (bc *busCollector) Collect(ch chan<- prometheus.Metric) {
	stats := bc.bus.Stats()
	ch <- prometheus.MustNewConstMetric(bc.published, prometheus.CounterValue, float64(stats.Published))
	ch <- prometheus.MustNewConstMetric(bc.dropped, prometheus.CounterValue, float64(stats.Dropped))
}
