package main

import (
	"fmt"

	"heliopulse/internal/aggregator"
	"heliopulse/internal/charts"
	"heliopulse/internal/config"
	"heliopulse/internal/fetchers"
	"heliopulse/internal/logger"
	"heliopulse/internal/metrics"
	"heliopulse/internal/mocks"
	"heliopulse/internal/resilience"
	"heliopulse/internal/server"
	"heliopulse/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the wired service components
type App struct {
	Config     *config.Config
	Registry   *fetchers.Registry
	Aggregator *aggregator.Aggregator
	Dashboard  *charts.Dashboard
	Snapshots  *server.Snapshotter
	Metrics    *prometheus.Registry
}

// NewApp wires sources, resilience, aggregation and rendering from cfg
func NewApp(cfg *config.Config) (*App, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(promReg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var reg *fetchers.Registry
	if cfg.MockupMode {
		logger.Info("Mockup mode enabled", map[string]interface{}{"dir": cfg.MocksDir})
		reg = mocks.NewRegistry(cfg.MocksDir, cfg.SourceTimeout)
	} else {
		client := fetchers.NewHTTPClient(cfg.SourceRetries, "heliopulse/"+config.GetVersion())
		reg = fetchers.NewRegistry(cfg, client)
	}

	catalogue := cfg.Catalogue()
	groupFetchers := aggregator.FromRegistry(catalogue, reg,
		resilience.WithStrategy(resilience.Strategy(cfg.FetchStrategy)),
		resilience.WithMetrics(recorder),
	)
	agg := aggregator.New(groupFetchers, aggregator.WithMetrics(recorder))

	dashboard, err := charts.NewDashboard(catalogue)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStore(cfg.SnapshotsDir)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Registry:   reg,
		Aggregator: agg,
		Dashboard:  dashboard,
		Snapshots:  server.NewSnapshotter(agg, dashboard, store, nil),
		Metrics:    promReg,
	}, nil
}
