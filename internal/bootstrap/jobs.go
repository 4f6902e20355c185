package bootstrap

import (
	"context"
	"fmt"

	"github.com/advisory/backoffice/internal/infrastructure/scheduler"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Background job names
const (
	JobReminderDigest = "reminder-digest"
	JobSummaryWarmup  = "crm-summary-warmup"
)

// Jobs bundles the background scheduler with its daily trigger
type Jobs struct {
	Scheduler *scheduler.Scheduler
	Trigger   *scheduler.DailyTrigger
}

// NewJobs builds the scheduler with every back-office job registered
func (c *Container) NewJobs() *Jobs {
	cfg := c.Config.Scheduler
	log := c.Logger.Named("jobs")

	s := scheduler.NewScheduler(cfg, log,
		scheduler.WithClock(c.Clock),
		scheduler.WithRunObserver(telemetry.RecordJobRun),
	)
	s.Register(JobReminderDigest, profiled(JobReminderDigest, c.reminderDigest))
	s.Register(JobSummaryWarmup, profiled(JobSummaryWarmup, c.warmSummary))

	return &Jobs{
		Scheduler: s,
		Trigger: scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			Hour:   cfg.DailyHour,
			Minute: cfg.DailyMinute,
		}, s, log),
	}
}

// Start starts the worker pool, then the trigger
func (j *Jobs) Start(ctx context.Context) error {
	if err := j.Scheduler.Start(ctx); err != nil {
		return err
	}
	return j.Trigger.Start(ctx)
}

// Stop stops the trigger, then drains the worker pool
func (j *Jobs) Stop(ctx context.Context) error {
	if err := j.Trigger.Stop(ctx); err != nil {
		return err
	}
	return j.Scheduler.Stop(ctx)
}

// profiled tags the job's goroutine for continuous profiling
func profiled(name string, task scheduler.Task) scheduler.Task {
	return func(ctx context.Context) (err error) {
		labels := telemetry.OperationLabels(name, map[string]string{"kind": "job"})
		telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
			err = task(ctx)
		})
		return err
	}
}

// reminderDigest logs every due reminder and publishes the count
func (c *Container) reminderDigest(ctx context.Context) error {
	reminders, err := c.Notes.Reminders(ctx)
	if err != nil {
		return err
	}
	telemetry.DueReminders.Set(float64(len(reminders)))

	for _, r := range reminders {
		c.Logger.Info("Reminder due",
			zap.Uint("note_id", r.ID),
			zap.Uint("client_id", r.ClientID),
			zap.String("client", r.ClientName),
			zap.Stringp("reminder_at", r.ReminderAt),
		)
	}
	c.Logger.Info("Reminder digest finished", zap.Int("due", len(reminders)))
	return nil
}

// warmSummary recomputes the unfiltered CRM summary so the first dashboard
// load of the day hits the cache
func (c *Container) warmSummary(ctx context.Context) error {
	summary, err := c.Snapshots.Summary(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to warm CRM summary: %w", err)
	}
	c.Logger.Debug("CRM summary cached", zap.Float64("total", summary.Total))
	return nil
}
