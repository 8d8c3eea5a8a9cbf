// Package cron re-runs command sync on a schedule so that commands edited
// or deleted outside the process drift back to the local definitions.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cordkit/pkg/logger"
)

// Syncer is satisfied by *handler.Handler.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Status describes the resync job.
type Status struct {
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	RunCount    int       `json:"run_count"`
	LastError   string    `json:"last_error"`
	LastSuccess bool      `json:"last_success"`
}

// Manager runs Sync on a cron schedule.
type Manager struct {
	log      *logger.Logger
	syncer   Syncer
	schedule string
	timeout  time.Duration

	scheduler *cron.Cron
	entry     cron.EntryID

	mu     sync.RWMutex
	status Status

	ctx    context.Context
	cancel context.CancelFunc
}

const defaultRunTimeout = 2 * time.Minute

// New creates a manager for a standard cron expression or descriptor
// such as "@hourly" or "@every 30m".
func New(log *logger.Logger, syncer Syncer, schedule string) (*Manager, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.System("resync")

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		log:      log,
		syncer:   syncer,
		schedule: schedule,
		timeout:  defaultRunTimeout,
		ctx:      ctx,
		cancel:   cancel,
		status:   Status{Schedule: schedule},
	}
	// Overlapping runs are skipped rather than queued.
	m.scheduler = cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))
	return m, nil
}

// Start schedules the job and starts the scheduler.
func (m *Manager) Start() error {
	entryID, err := m.scheduler.AddFunc(m.schedule, m.run)
	if err != nil {
		return fmt.Errorf("scheduling resync: %w", err)
	}
	m.entry = entryID
	m.scheduler.Start()

	next := m.scheduler.Entry(entryID).Next
	m.mu.Lock()
	m.status.NextRun = next
	m.mu.Unlock()

	m.log.Info("Resync scheduled",
		zap.String("schedule", m.schedule),
		zap.Time("next_run", next))
	return nil
}

// Stop stops the scheduler and waits for a running sync to return.
func (m *Manager) Stop() error {
	m.cancel()
	ctx := m.scheduler.Stop()
	<-ctx.Done()
	m.log.Info("Resync stopped")
	return nil
}

// RunNow performs one sync outside the schedule.
func (m *Manager) RunNow(ctx context.Context) error {
	return m.execute(ctx)
}

// Status returns a snapshot of the job state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) run() {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()
	_ = m.execute(ctx)
}

func (m *Manager) execute(ctx context.Context) error {
	start := time.Now()
	err := m.syncer.Sync(ctx)

	m.mu.Lock()
	m.status.LastRun = start
	m.status.RunCount++
	m.status.LastSuccess = err == nil
	m.status.LastError = ""
	if err != nil {
		m.status.LastError = err.Error()
	}
	if m.entry != 0 {
		m.status.NextRun = m.scheduler.Entry(m.entry).Next
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Error("Resync failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return err
	}
	m.log.Info("Resync completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// cronLogger adapts the logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
