package mail

import (
	"context"
	"log/slog"
	"time"

	"github.com/smartplant/auth/internal/auth/domain"
	"github.com/smartplant/auth/internal/auth/metrics"
	"github.com/smartplant/auth/internal/auth/store"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxAttempts  = 5

	defaultBatchSize = 20
	defaultLease     = time.Minute
	baseBackoff      = 5 * time.Second
	maxBackoff       = 2 * time.Minute
)

// Dispatcher drains the mail outbox. Rows are claimed by moving their
// next_attempt_at forward, so several replicas can poll the same table
// without sending a code twice.
type Dispatcher struct {
	Store        store.Store
	Sender       Sender
	Logger       *slog.Logger
	PollInterval time.Duration
	MaxAttempts  int
	CodeTTL      time.Duration
	Now          func() time.Time

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewDispatcher(st store.Store, sender Sender, logger *slog.Logger, codeTTL time.Duration) *Dispatcher {
	return &Dispatcher{
		Store:        st,
		Sender:       sender,
		Logger:       logger,
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
		CodeTTL:      codeTTL,
		Now:          time.Now,
		wakeCh:       make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Notify asks for an immediate pass. It never blocks.
func (d *Dispatcher) Notify() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Start() {
	go d.run()
	d.Logger.Info("mail dispatcher started", "poll_interval", d.PollInterval)
}

// Stop waits for an in-flight pass to finish.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
	d.Logger.Info("mail dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-d.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	d.DispatchDue(ctx)
	for {
		select {
		case <-ticker.C:
			d.DispatchDue(ctx)
		case <-d.wakeCh:
			d.DispatchDue(ctx)
		case <-d.stopCh:
			return
		}
	}
}

// DispatchDue sends every due row once and reports how many were delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context) int {
	due, err := d.Store.MailDeliveries().ListDueMail(ctx, d.Now(), defaultBatchSize)
	if err != nil {
		d.Logger.Error("failed to list due mail", "error", err)
		return 0
	}

	sent := 0
	for _, row := range due {
		if ctx.Err() != nil {
			break
		}
		if d.deliver(ctx, row) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) deliver(ctx context.Context, row domain.MailDelivery) bool {
	l := d.Logger.With("delivery_id", row.ID, "user_id", row.UserID)
	now := d.Now()

	ok, err := d.Store.MailDeliveries().ClaimMail(ctx, row.ID, row.NextAttemptAt, now.Add(defaultLease))
	if err != nil {
		l.Error("failed to claim mail", "error", err)
		return false
	}
	if !ok {
		return false
	}

	msg, err := RenderOneTimeCode(row.Email, row.Username, row.Code, d.CodeTTL)
	if err == nil {
		err = d.Sender.Send(ctx, msg)
	}
	if err == nil {
		if derr := d.Store.MailDeliveries().DeleteMail(ctx, row.ID); derr != nil {
			l.Error("mail sent but outbox row not removed", "error", derr)
		}
		metrics.MailDeliveries.WithLabelValues(metrics.OutcomeSuccess).Inc()
		l.Info("login code delivered")
		return true
	}

	attempts := row.Attempts + 1
	if attempts >= d.MaxAttempts {
		metrics.MailDeliveries.WithLabelValues(metrics.OutcomeDropped).Inc()
		l.Error("giving up on login code mail", "attempts", attempts, "error", err)
		if derr := d.Store.MailDeliveries().DeleteMail(ctx, row.ID); derr != nil {
			l.Error("failed to drop outbox row", "error", derr)
		}
		return false
	}

	metrics.MailDeliveries.WithLabelValues(metrics.OutcomeFailure).Inc()
	next := now.Add(Backoff(attempts))
	l.Warn("login code mail failed, will retry", "attempts", attempts, "retry_at", next, "error", err)
	if rerr := d.Store.MailDeliveries().RescheduleMail(ctx, row.ID, attempts, next, err.Error()); rerr != nil {
		l.Error("failed to reschedule mail", "error", rerr)
	}
	return false
}

// Backoff is the delay before retry number attempts (1-based): 5s doubling,
// capped at two minutes.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
