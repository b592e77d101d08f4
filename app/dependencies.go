package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantumfork/whatif/config"
	"github.com/quantumfork/whatif/repositories"
	"github.com/quantumfork/whatif/repositories/sqlite"
	"github.com/quantumfork/whatif/services/governor"
	"github.com/quantumfork/whatif/services/monitor"
	"github.com/quantumfork/whatif/services/providers"
	"github.com/quantumfork/whatif/services/providers/openrouter"
	"github.com/quantumfork/whatif/services/ratelimit"
	"github.com/quantumfork/whatif/services/respcache"
	"github.com/quantumfork/whatif/services/security"
	"github.com/quantumfork/whatif/services/simulation"
	"github.com/quantumfork/whatif/visualization"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *sqlite.DB
	Logger *zap.Logger

	// Repositories
	Simulations repositories.SimulationRepository

	// Call governor and its components
	Limiter  *ratelimit.Limiter
	Cache    *respcache.Cache
	Monitor  *monitor.CallMonitor
	Governor *governor.Governor

	// Domain services
	Security *security.Service
	Engine   *simulation.Engine
	Renderer *visualization.Renderer
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initGovernor(cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the SQLite database, applies the schema, and builds
// the simulation repository.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := sqlite.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Simulations = sqlite.NewSimulationRepository(db.DB)

	d.Logger.Info("database initialized", zap.String("path", cfg.Database.Path))
	return nil
}

// initGovernor builds the rate limiter, response cache, call monitor, and
// the governor with its model fallback chain.
func (d *Dependencies) initGovernor(cfg *config.Config) {
	d.Limiter = ratelimit.NewLimiter(cfg.Governor.BucketCapacity, cfg.Governor.RefillRate)
	d.Cache = respcache.New(cfg.Governor.CacheMaxSize, cfg.Governor.CacheTTL)
	d.Monitor = monitor.NewCallMonitor()

	adapter := openrouter.NewAdapter(providers.ProviderConfig{
		APIKey:     cfg.Providers.OpenRouter.APIKey,
		BaseURL:    cfg.Providers.OpenRouter.BaseURL,
		Timeout:    cfg.Providers.OpenRouter.Timeout,
		MaxRetries: cfg.Providers.OpenRouter.MaxRetries,
	}, cfg.Providers.CostPer1K)

	candidates := make([]governor.Candidate, 0, len(cfg.Providers.ModelChain))
	for _, model := range cfg.Providers.ModelChain {
		candidates = append(candidates, governor.Candidate{
			Model:     model,
			Provider:  adapter,
			CostPer1K: cfg.Providers.CostPer1K[model],
		})
	}

	if cfg.Providers.OpenRouter.APIKey == "" {
		d.Logger.Warn("no OpenRouter API key configured, simulations will use procedural fallback")
	}

	d.Governor = governor.New(
		d.Limiter,
		d.Cache,
		d.Monitor,
		candidates,
		cfg.Providers.MaxTokens,
		cfg.Providers.Temperature,
		d.Logger,
	)

	d.Logger.Info("governor initialized",
		zap.Int("bucket_capacity", cfg.Governor.BucketCapacity),
		zap.Float64("refill_rate", cfg.Governor.RefillRate),
		zap.Int("cache_max_size", cfg.Governor.CacheMaxSize),
		zap.Strings("model_chain", cfg.Providers.ModelChain))
}

// initServices builds the security service, simulation engine, and river
// renderer.
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Security = security.NewService(
		cfg.Security.MaxInputLength,
		cfg.Security.ContentFiltering,
		cfg.Security.SanitizeOutputs,
	)
	d.Engine = simulation.NewEngine(d.Governor, d.Security, d.Simulations, d.Logger)
	d.Renderer = visualization.NewRenderer(800, 600)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
