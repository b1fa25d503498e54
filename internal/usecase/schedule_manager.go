package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// UserJob is run once per interval for a single user.
type UserJob func(ctx context.Context, userID int64)

// ScheduleManager keeps one repeating job per user. Jobs of different users
// run concurrently; a job still running when its next tick arrives is skipped.
type ScheduleManager struct {
	settings domain.SettingsStore
	job      UserJob
	cron     *cron.Cron
	cronLog  cron.Logger
	logger   *zap.Logger
	baseCtx  context.Context

	mu      sync.Mutex
	entries map[int64]cron.EntryID
	started bool
}

func NewScheduleManager(baseCtx context.Context, settings domain.SettingsStore, job UserJob, cronLog cron.Logger, logger *zap.Logger) *ScheduleManager {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &ScheduleManager{
		settings: settings,
		job:      job,
		cron:     cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog))),
		cronLog:  cronLog,
		logger:   logger,
		baseCtx:  baseCtx,
		entries:  make(map[int64]cron.EntryID),
	}
}

// StartAll starts the cron loop and schedules every known user. The loop runs
// even when the users cannot be listed, so schedules set later still fire.
func (m *ScheduleManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.cron.Start()
		m.started = true
	}
	m.mu.Unlock()

	all, err := m.settings.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, settings := range all {
		m.UpsertUser(settings.UserID, settings.FrequencySeconds)
	}
	m.logger.Info("user schedules restored", zap.Int("count", len(all)))
	return nil
}

// UpsertUser replaces the user's job with one firing every frequencySeconds.
// The first run happens one interval from now.
func (m *ScheduleManager) UpsertUser(userID int64, frequencySeconds int) {
	interval := time.Duration(ClampFrequency(frequencySeconds)) * time.Second
	job := cron.NewChain(cron.SkipIfStillRunning(m.cronLog)).Then(cron.FuncJob(func() {
		m.job(m.baseCtx, userID)
	}))

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.entries[userID]; ok {
		m.cron.Remove(id)
	}
	m.entries[userID] = m.cron.Schedule(cron.Every(interval), job)
	m.logger.Info("user schedule set", zap.Int64("user_id", userID), zap.Duration("interval", interval))
}

// Interval reports the active interval of a user's job. The second result is
// false when the user has no job.
func (m *ScheduleManager) Interval(userID int64) (time.Duration, bool) {
	m.mu.Lock()
	id, ok := m.entries[userID]
	m.mu.Unlock()
	if !ok {
		return 0, false
	}
	entry := m.cron.Entry(id)
	schedule, ok := entry.Schedule.(cron.ConstantDelaySchedule)
	if !ok {
		return 0, false
	}
	return schedule.Delay, true
}

// StopAll stops the cron loop and waits for running jobs.
func (m *ScheduleManager) StopAll() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()
	if !started {
		return
	}

	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		m.logger.Warn("timeout waiting for running evaluation passes")
	}
}
