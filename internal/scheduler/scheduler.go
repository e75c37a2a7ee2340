package scheduler

import (
	"context"
	"time"

	"github.com/foodbridge/api/internal/clock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = time.Minute

// ExpirySweeper marks pending donations whose deadline passed.
type ExpirySweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryScheduler runs the expiry sweep on a cron schedule. Expiry is
// otherwise evaluated lazily on reads; the sweep bounds how long a stale
// pending status can linger without traffic touching it.
type ExpiryScheduler struct {
	cronEngine *cron.Cron
	sweeper    ExpirySweeper
	clock      clock.Clock
	log        *logrus.Logger
	spec       string
}

func NewExpiryScheduler(sweeper ExpirySweeper, clk clock.Clock, log *logrus.Logger, spec string) *ExpiryScheduler {
	return &ExpiryScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		sweeper:    sweeper,
		clock:      clk,
		log:        log,
		spec:       spec,
	}
}

// Start registers the sweep job and starts the cron engine.
func (s *ExpiryScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	s.log.WithField("spec", s.spec).Info("expiry scheduler started")
	return nil
}

// Sweep runs one expiry pass and logs the outcome.
func (s *ExpiryScheduler) Sweep(ctx context.Context) {
	expired, err := s.sweeper.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		s.log.WithError(err).Error("expiry sweep failed")
		return
	}
	if expired > 0 {
		s.log.WithField("expired", expired).Info("expiry sweep marked donations")
	}
}

// Stop halts the cron engine and waits for a running sweep to finish.
func (s *ExpiryScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("expiry scheduler stopped")
}
