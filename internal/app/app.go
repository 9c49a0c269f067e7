// Package app wires the arbitrage system together and owns its lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/nmoreno/poolarb/internal/breaker"
	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/feed"
	"github.com/nmoreno/poolarb/internal/manager"
	"github.com/nmoreno/poolarb/internal/planner"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/internal/storage"
	"github.com/nmoreno/poolarb/pkg/config"
	"github.com/nmoreno/poolarb/pkg/healthprobe"
	"github.com/nmoreno/poolarb/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	chainClient   *chain.Client
	registry      *registry.Registry
	poolFeed      *feed.Feed
	detector      *detector.Detector
	calculator    *profitability.Calculator
	planner       *planner.Planner
	breaker       *breaker.Breaker
	manager       *manager.Manager
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Manager exposes the system facade, mainly for one-shot CLI commands.
func (a *App) Manager() *manager.Manager {
	return a.manager
}

// Registry exposes the pool registry for one-shot CLI commands.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
