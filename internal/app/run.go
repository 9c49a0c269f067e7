package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Float64("min-profit-usd", a.cfg.MinProfitUSD),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Int("monitored-pools", a.registry.Len()),
		zap.Bool("auto-execute", a.cfg.AutoExecute))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	a.seedPools()

	if a.poolFeed != nil {
		a.poolFeed.Start(a.ctx)
		a.healthChecker.SetComponent("feed", "running")
	}

	// Manager starts the detector and the auto-execution loop
	a.manager.Start(a.ctx)
	a.healthChecker.SetComponent("detector", "monitoring")
	a.healthChecker.SetComponent("planner", "ready")

	return nil
}

// seedPools registers the configured startup pools. A pool that cannot be
// read is logged and skipped, not fatal.
func (a *App) seedPools() {
	for _, raw := range a.cfg.Pools {
		address := common.HexToAddress(raw)
		_, err := a.manager.AddPool(a.ctx, address)
		if err != nil {
			a.logger.Warn("seed-pool-failed",
				zap.String("pool", raw),
				zap.Error(err))
		}
	}
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
