package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DailyTrigger submits every registered job once a day at a fixed local time
type DailyTrigger struct {
	config    DailyTriggerConfig
	scheduler *Scheduler
	clock     clockwork.Clock
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a trigger that shares the scheduler's clock
func NewDailyTrigger(config DailyTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		config:    config,
		scheduler: scheduler,
		clock:     scheduler.clock,
		logger:    logger,
	}
}

// Start starts the check loop
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Daily trigger started",
		zap.Int("daily_hour", t.config.Hour),
		zap.Int("daily_minute", t.config.Minute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the check loop
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := t.clock.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the jobs when the configured minute comes around,
// at most once per calendar day
func (t *DailyTrigger) checkAndTrigger() bool {
	now := t.clock.Now()
	today := now.Format("2006-01-02")

	t.mu.Lock()
	if t.lastRunDate == today || now.Hour() != t.config.Hour || now.Minute() != t.config.Minute {
		t.mu.Unlock()
		return false
	}
	t.lastRunDate = today
	t.mu.Unlock()

	t.logger.Info("Triggering daily jobs", zap.String("date", today))
	if err := t.scheduler.SubmitAll(); err != nil {
		t.logger.Error("Failed to submit daily jobs", zap.Error(err))
	}
	return true
}

// TriggerNow submits the named jobs right away, or every job when none are named
func (t *DailyTrigger) TriggerNow(names ...string) error {
	if len(names) == 0 {
		return t.scheduler.SubmitAll()
	}
	for _, name := range names {
		if _, err := t.scheduler.Submit(name); err != nil {
			return err
		}
	}
	return nil
}
