// Package app wires configuration, clients, storage and services into
// one initialized core shared by the command-line entrypoints
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/clients/quotes"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/graph"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/services/analysis"
	"github.com/portana/portgraph/internal/services/loader"
	"github.com/portana/portgraph/internal/services/pipeline"
	"github.com/portana/portgraph/internal/storage/surreal"
)

// App holds all initialized services and clients. The FactSet client
// is nil when credentials are absent; ETL runs require it, analysis
// queries do not.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	FactSet     interfaces.FactSetClient
	Quotes      interfaces.QuotesClient
	Store       *surreal.Store
	Pipeline    *pipeline.Pipeline
	Analysis    *analysis.Service
	StartupTime time.Time
}

func binaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, then
// PORTGRAPH_CONFIG, then portgraph.toml next to the binary, then the
// development fallback.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("PORTGRAPH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binaryDir(), "portgraph.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/portgraph.toml"
		}
	}
	return configPath
}

// NewApp loads configuration, connects to the graph store and builds
// the clients and services.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := surreal.NewStore(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize graph store: %w", err)
	}

	var factsetClient interfaces.FactSetClient
	if config.HasFactSetCredentials() {
		factsetClient = factset.NewClient(
			config.Clients.FactSet.Username,
			config.Clients.FactSet.APIKey,
			factset.WithBaseURL(config.Clients.FactSet.BaseURL),
			factset.WithLogger(logger),
			factset.WithRateLimit(config.Clients.FactSet.RateLimit),
			factset.WithTimeout(config.Clients.FactSet.GetTimeout()),
			factset.WithMaxRetries(config.Clients.FactSet.MaxRetries),
			factset.WithMaxRetryDelay(config.Clients.FactSet.GetMaxRetryDelay()),
		)
	} else {
		logger.Warn().Msg("FactSet credentials not configured - ETL will be unavailable")
	}

	quotesClient := quotes.NewClient(
		quotes.WithBaseURL(config.Clients.Quotes.BaseURL),
		quotes.WithLogger(logger),
		quotes.WithRateLimit(config.Clients.Quotes.RateLimit),
		quotes.WithTimeout(config.Clients.Quotes.GetTimeout()),
	)

	app := &App{
		Config:      config,
		Logger:      logger,
		FactSet:     factsetClient,
		Quotes:      quotesClient,
		Store:       store,
		Analysis:    analysis.NewService(store, logger),
		StartupTime: time.Now(),
	}
	if factsetClient != nil {
		app.Pipeline = pipeline.New(factsetClient, quotesClient, loader.NewLoader(logger), graph.NewBuilder(logger), logger)
	}

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("environment", config.Environment).
		Msg("portgraph initialized")

	return app, nil
}

// Close releases the graph store connection.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close graph store")
		}
	}
}
