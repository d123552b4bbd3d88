package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/smartplant/auth/internal/auth/store"
)

const (
	// RevokedTokenRetention keeps revoked refresh tokens around so the
	// rotation chain can still be inspected after a suspected theft.
	RevokedTokenRetention = 30 * 24 * time.Hour

	housekeepingTimeout = time.Minute
)

// HousekeepingService periodically deletes expired blacklist entries,
// refresh tokens, one-time codes and undeliverable mail. Every delete is
// "where expired", so it can run next to live traffic and on several
// replicas at once.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupReport counts the rows removed by one pass.
type CleanupReport struct {
	Blacklist     int64
	RefreshTokens int64
	Codes         int64
	Mail          int64
	Failures      int
}

// Cleanup runs one pass. Each deletion is independent; a failing one is
// logged and the others still run.
func (s *HousekeepingService) Cleanup(ctx context.Context) CleanupReport {
	ctx, cancel := context.WithTimeout(ctx, housekeepingTimeout)
	defer cancel()

	now := s.Now()
	var rep CleanupReport

	step := func(name string, dst *int64, fn func() (int64, error)) {
		n, err := fn()
		if err != nil {
			rep.Failures++
			s.Logger.Error("housekeeping step failed", "step", name, "error", err)
			return
		}
		*dst = n
	}

	step("blacklist", &rep.Blacklist, func() (int64, error) {
		return s.Store.Blacklist().DeleteExpiredBlacklist(ctx, now)
	})
	step("refresh_tokens", &rep.RefreshTokens, func() (int64, error) {
		return s.Store.RefreshTokens().DeleteStaleRefreshTokens(ctx, now, now.Add(-RevokedTokenRetention))
	})
	step("mail_deliveries", &rep.Mail, func() (int64, error) {
		return s.Store.MailDeliveries().DeleteExpiredMail(ctx, now)
	})
	// Codes younger than the issuance window still count towards the limit.
	// Mail rows go first; deleting a code cascades to its outbox row.
	step("one_time_codes", &rep.Codes, func() (int64, error) {
		return s.Store.OneTimeCodes().DeleteStaleCodes(ctx, now, now.Add(-CodeWindow))
	})

	outcome := metrics.OutcomeSuccess
	if rep.Failures > 0 {
		outcome = metrics.OutcomeFailure
	}
	metrics.HousekeepingRuns.WithLabelValues(outcome).Inc()

	s.Logger.Info("housekeeping cleanup completed",
		"blacklist", rep.Blacklist,
		"refresh_tokens", rep.RefreshTokens,
		"one_time_codes", rep.Codes,
		"mail_deliveries", rep.Mail,
		"failures", rep.Failures,
	)
	return rep
}
