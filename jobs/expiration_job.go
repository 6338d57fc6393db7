package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Expirer rejects pending bookings requested before cutoff.
type Expirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// ExpirationJob periodically expires pending bookings that were never
// answered and whose requested time lies more than grace in the past.
type ExpirationJob struct {
	expirer   Expirer
	log       *zap.Logger
	interval  time.Duration
	grace     time.Duration
	now       func() time.Time
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// NewExpirationJob creates a new expiration job
func NewExpirationJob(expirer Expirer, log *zap.Logger, interval, grace time.Duration) *ExpirationJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ExpirationJob{
		expirer:  expirer,
		log:      log,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

// Start schedules the job. It runs once immediately and then every interval;
// a run still in progress when the next is due causes that tick to be skipped.
func (j *ExpirationJob) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err = s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			if _, err := j.RunOnce(ctx); err != nil {
				j.log.Error("expiration job failed", zap.Error(err))
			}
		}),
		gocron.WithName("pending-booking-expiry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return fmt.Errorf("schedule expiration job: %w", err)
	}

	j.scheduler = s
	j.cancel = cancel
	s.Start()
	j.log.Info("expiration job started",
		zap.Duration("interval", j.interval),
		zap.Duration("grace", j.grace))
	return nil
}

// Stop stops the expiration job
func (j *ExpirationJob) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	j.cancel()
	err := j.scheduler.Shutdown()
	j.scheduler = nil
	j.log.Info("expiration job stopped")
	return err
}

// RunOnce performs a single expiry pass and returns how many bookings
// were expired.
func (j *ExpirationJob) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.grace)
	n, err := j.expirer.ExpireStale(ctx, cutoff)
	if err != nil {
		return n, err
	}
	if n > 0 {
		j.log.Info("expired stale bookings", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
