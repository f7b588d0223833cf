package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"shopki/internal/config"
	"shopki/internal/models"
	"shopki/internal/repository"
)

// Sweeper periodically expires payment requests that have sat in pending
// past the configured cutoff. It is the only component allowed to move a
// long-pending row, and it does so through the same guarded update the
// reconciler uses, so it can never clobber a terminal state a racing
// callback or status probe just applied.
type Sweeper struct {
	cron     *cron.Cron
	cfg      config.SweeperConfig
	payments *repository.PaymentRepository
	orders   *repository.OrderRepository
	logger   *zap.Logger
}

// New creates a sweeper scheduled per cfg.Spec.
func New(cfg config.SweeperConfig, payments *repository.PaymentRepository, orders *repository.OrderRepository, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		cfg:      cfg,
		payments: payments,
		orders:   orders,
		logger:   logger,
	}
}

// Start registers and starts the sweep job.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("payment sweeper started",
		zap.String("spec", s.cfg.Spec),
		zap.Duration("pending_max_age", s.cfg.PendingMaxAge))
	return nil
}

// Stop stops scheduling and returns a context that closes once any
// in-flight sweep finishes.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.cfg.PendingMaxAge)

	stale, err := s.payments.FindStalePending(cutoff)
	if err != nil {
		s.logger.Error("sweep: failed to list stale pending payments", zap.Error(err))
		return
	}

	for _, p := range stale {
		won, err := s.payments.MarkExpired(p.CheckoutRequestID, cutoff)
		if err != nil {
			s.logger.Error("sweep: failed to expire payment",
				zap.String("checkout_request_id", p.CheckoutRequestID),
				zap.Error(err))
			continue
		}
		if !won {
			// A callback or status probe resolved it since the listing.
			continue
		}

		if _, err := s.orders.SetPaymentStatus(p.OrderID, models.PaymentStatusExpired); err != nil {
			s.logger.Error("sweep: failed to mirror expiry onto order",
				zap.String("order_id", p.OrderID),
				zap.Error(err))
		}

		s.logger.Info("expired long-pending payment",
			zap.String("checkout_request_id", p.CheckoutRequestID),
			zap.String("order_id", p.OrderID))
	}
}
