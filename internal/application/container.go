package application

import (
	"fmt"

	"go.uber.org/zap"

	scanapp "github.com/khanhnv2901/apiprobe/internal/application/scan"
	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/apiprobe/internal/probe"
)

// Config is everything needed to wire a scan against one target.
type Config struct {
	Target    string
	APIPrefix string
	OutputDir string
	HTTP      httpclient.Config
	Payloads  probe.Payloads
	Options   probe.Options
	Logger    *zap.SugaredLogger
}

// Container holds all application services and repositories
// This is a simple dependency injection container
type Container struct {
	// Repositories
	ReportRepo *json.ReportRepository

	// Services
	Client   *httpclient.Client
	Registry *probe.Registry
	Runner   *scanapp.Runner

	// Target is the normalized base URL, without the API prefix.
	Target   string
	PoolSize int
}

// NewContainer creates a new application service container
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	target, err := scan.NormalizeTarget(cfg.Target)
	if err != nil {
		return nil, err
	}

	reportRepo, err := json.NewReportRepository(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create report repository: %w", err)
	}

	registry := probe.NewRegistry(probe.Config{
		Payloads:  cfg.Payloads,
		APIPrefix: cfg.APIPrefix,
		Options:   cfg.Options,
	})

	// Bursts must not queue behind the connection pool.
	httpCfg := cfg.HTTP
	if widest := registry.MaxConcurrency(); httpCfg.PoolSize < widest {
		if httpCfg.PoolSize > 0 {
			logger.Warnw("pool size below widest burst; raising it",
				"configured", httpCfg.PoolSize, "required", widest)
		}
		httpCfg.PoolSize = widest
	}
	httpCfg.BaseURL = target + cfg.APIPrefix
	httpCfg.Logger = logger

	client, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Container{
		ReportRepo: reportRepo,
		Client:     client,
		Registry:   registry,
		Runner:     scanapp.NewRunner(registry, client, logger),
		Target:     target,
		PoolSize:   httpCfg.PoolSize,
	}, nil
}

// Close releases pooled connections.
func (c *Container) Close() {
	c.Client.Close()
}
