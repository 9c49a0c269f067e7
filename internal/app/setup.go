package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/internal/breaker"
	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/feed"
	"github.com/nmoreno/poolarb/internal/manager"
	"github.com/nmoreno/poolarb/internal/planner"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/internal/storage"
	"github.com/nmoreno/poolarb/pkg/cache"
	"github.com/nmoreno/poolarb/pkg/config"
	"github.com/nmoreno/poolarb/pkg/healthprobe"
	"github.com/nmoreno/poolarb/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	poolCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	chainClient, reader, err := setupReader(cfg, poolCache, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup reader: %w", err)
	}

	poolRegistry := registry.New(reader, logger)
	poolFeed := setupFeed(cfg, logger, poolRegistry)
	arbDetector := setupDetector(cfg, logger, poolRegistry)
	calculator := setupCalculator(cfg, logger)

	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	arbPlanner, err := setupPlanner(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup planner: %w", err)
	}

	lossBreaker := setupBreaker(cfg, logger)
	arbManager := manager.New(manager.Config{
		AutoExecute:          cfg.AutoExecute,
		AutoExecuteMinProfit: cfg.AutoExecuteMinProfit,
		AutoExecuteRisk:      cfg.AutoExecuteRisk,
		Logger:               logger,
	}, poolRegistry, arbDetector, calculator, arbPlanner, lossBreaker, arbStorage)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Manager:       arbManager,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		chainClient:   chainClient,
		registry:      poolRegistry,
		poolFeed:      poolFeed,
		detector:      arbDetector,
		calculator:    calculator,
		planner:       arbPlanner,
		breaker:       lossBreaker,
		manager:       arbManager,
		storage:       arbStorage,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 pools)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

// setupReader picks the pool reader for the configured mode. Paper mode
// without an indexer runs against the seeded simulator.
func setupReader(cfg *config.Config, poolCache cache.Cache, logger *zap.Logger) (*chain.Client, chain.PoolReader, error) {
	if cfg.IndexerURL == "" {
		if cfg.ExecutionMode == config.ModeLive {
			return nil, nil, fmt.Errorf("live mode requires INDEXER_URL")
		}
		logger.Info("using-simulated-reader")
		sim := chain.NewSimReader(1, 0.002)
		for _, raw := range cfg.Pools {
			sim.SeedDefault(common.HexToAddress(raw))
		}
		return nil, sim, nil
	}

	client, err := chain.NewClient(&chain.ClientConfig{
		IndexerURL: cfg.IndexerURL,
		RPCURL:     cfg.RPCURL,
		Cache:      poolCache,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func setupFeed(cfg *config.Config, logger *zap.Logger, reg *registry.Registry) *feed.Feed {
	if cfg.FeedWSURL == "" {
		return nil
	}
	return feed.New(feed.Config{
		URL:           cfg.FeedWSURL,
		JitterPercent: 0.2,
		Logger:        logger,
	}, reg)
}

func setupDetector(cfg *config.Config, logger *zap.Logger, reg *registry.Registry) *detector.Detector {
	return detector.New(detector.Config{
		ScanInterval:    cfg.ScanInterval,
		MinProfitUSD:    cfg.MinProfitUSD,
		MaxRiskScore:    cfg.MaxRiskScore,
		StalenessWindow: cfg.StalenessWindow,
		Logger:          logger,
	}, reg)
}

func setupCalculator(cfg *config.Config, logger *zap.Logger) *profitability.Calculator {
	return profitability.New(profitability.NewModel(0, 0.05), logger)
}

func setupPlanner(cfg *config.Config, logger *zap.Logger) (*planner.Planner, error) {
	var executor planner.StepExecutor
	if cfg.ExecutionMode == config.ModeLive {
		if cfg.SignerKey == "" {
			return nil, fmt.Errorf("live mode requires SIGNER_KEY")
		}
		signer, err := chain.NewLocalSigner(cfg.SignerKey)
		if err != nil {
			return nil, fmt.Errorf("load signer: %w", err)
		}
		executor = planner.NewLiveExecutor(signer, logger)
		logger.Info("live-executor-configured",
			zap.String("signer", signer.Address().Hex()))
	}

	return planner.New(planner.Config{
		MaxConcurrent: cfg.MaxConcurrentExecutions,
		StepTimeout:   cfg.StepTimeout,
		CapitalUSD:    cfg.CapitalUSD,
		Logger:        logger,
	}, executor), nil
}

func setupBreaker(cfg *config.Config, logger *zap.Logger) *breaker.Breaker {
	brk := breaker.New(breaker.Config{
		MaxConsecutiveLosses: cfg.BreakerMaxLosses,
		MaxDrawdownUSD:       cfg.BreakerMaxDrawdown,
		Cooldown:             cfg.BreakerCooldown,
		Logger:               logger,
	})
	brk.SetEnabled(cfg.BreakerEnabled)
	return brk
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == config.StoragePostgres {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return storage.NewConsoleStorage(logger), nil
}
