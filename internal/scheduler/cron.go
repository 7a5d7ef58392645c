package scheduler

import (
	"context"
	"time"

	"bda_portal_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

// JobFunc is a periodic job. The context is cancelled at the job timeout or on shutdown.
type JobFunc func(ctx context.Context) error

// Cron runs periodic maintenance jobs such as the analytics warm-up and the
// overdue follow-up sweep.
type Cron struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
	base    context.Context
	cancel  context.CancelFunc
}

func NewCron(log *logger.Logger, timeout time.Duration) *Cron {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &Cron{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log}))),
		log:     log,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Add registers fn under name on a standard five-field cron schedule.
func (c *Cron) Add(name, schedule string, fn JobFunc) error {
	jobLog := c.log.WithJob(name)
	_, err := c.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(c.base, c.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			jobLog.Warn("cron job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		jobLog.Info("cron job finished", "duration_ms", time.Since(start).Milliseconds())
	})
	return err
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
func (c *Cron) Run(ctx context.Context) {
	c.cron.Start()
	<-ctx.Done()
	c.cancel()
	<-c.cron.Stop().Done()
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, append(keysAndValues, "component", "cron")...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "component", "cron", "error", err)...)
}
