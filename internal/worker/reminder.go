package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/engine"
)

// ReminderPolicy controls how the reminder worker nags pending approvers
type ReminderPolicy struct {
	Interval     time.Duration // Minimum gap between reminders to one approver
	MaxReminders int           // Reminders per approval before giving up
	PollInterval time.Duration // How often to scan for due reminders
	BatchSize    int           // Approvals processed per scan
}

// DefaultReminderPolicy matches a once-a-day nag with a three strike cap
func DefaultReminderPolicy() ReminderPolicy {
	return ReminderPolicy{
		Interval:     24 * time.Hour,
		MaxReminders: 3,
		PollInterval: 15 * time.Minute,
		BatchSize:    50,
	}
}

// ReminderWorker periodically re-notifies approvers who have pending
// approvals older than the reminder interval
type ReminderWorker struct {
	engine *engine.Engine
	policy ReminderPolicy
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(eng *engine.Engine, policy ReminderPolicy, logger *zap.Logger) *ReminderWorker {
	if policy.PollInterval <= 0 {
		policy.PollInterval = DefaultReminderPolicy().PollInterval
	}
	if policy.BatchSize <= 0 {
		policy.BatchSize = DefaultReminderPolicy().BatchSize
	}
	return &ReminderWorker{
		engine: eng,
		policy: policy,
		logger: logger,
	}
}

// Start starts the reminder loop
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("reminder worker is already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("ReminderWorker started",
		zap.Duration("poll_interval", w.policy.PollInterval),
		zap.Duration("reminder_interval", w.policy.Interval),
		zap.Int("max_reminders", w.policy.MaxReminders))

	go w.loop()

	return nil
}

// Stop stops the reminder loop and waits for the current scan to finish
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Info("ReminderWorker stopped")
}

// Name returns the worker name for identification
func (w *ReminderWorker) Name() string {
	return "ReminderWorker"
}

func (w *ReminderWorker) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.policy.PollInterval)
	defer ticker.Stop()

	// Scan immediately on start
	w.scan()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *ReminderWorker) scan() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	sent, err := w.engine.ProcessReminders(ctx, w.policy.MaxReminders, w.policy.Interval, w.policy.BatchSize)
	if err != nil {
		w.logger.Error("Failed to process reminders", zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info("Sent approval reminders", zap.Int("count", sent))
	}
}
