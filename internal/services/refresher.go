package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultRefreshInterval is how often market data is re-pulled.
const DefaultRefreshInterval = 60 * time.Second

// Refresher periodically re-pulls FX rates and bond prices. It owns its
// ticker and stops with the context it was started with.
type Refresher struct {
	fx       FXService
	bonds    BondService
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a refresher with the default interval.
func NewRefresher(fx FXService, bonds BondService, logger *zap.Logger) *Refresher {
	return NewRefresherWithInterval(fx, bonds, DefaultRefreshInterval, logger)
}

// NewRefresherWithInterval creates a refresher with a custom interval,
// used by tests.
func NewRefresherWithInterval(fx FXService, bonds BondService, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{fx: fx, bonds: bonds, interval: interval, logger: logger}
}

// Start runs one refresh immediately and then on every tick until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if _, err := r.fx.Refresh(ctx); err != nil {
		r.logger.Warn("fx refresh failed", zap.Error(err))
	}
	if err := r.bonds.RefreshPrices(ctx); err != nil {
		r.logger.Warn("price refresh failed", zap.Error(err))
	}
}
