package services

import (
	"context"
	"sync"
	"time"

	"github.com/lovance/backend/internal/config"
	"github.com/lovance/backend/internal/metrics"

	"github.com/rs/zerolog"
)

// cleanupTickInterval is how often the job checks whether it is due.
const cleanupTickInterval = time.Minute

// DeviceCleanupJob purges push tokens unused past the configured TTL, once
// a day at the configured UTC time.
type DeviceCleanupJob struct {
	cfg     config.CleanupConfig
	devices DeviceStore
	logger  zerolog.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastRunAt *time.Time
	nextRunAt time.Time
}

// NewDeviceCleanupJob creates a new cleanup job
func NewDeviceCleanupJob(cfg config.CleanupConfig, devices DeviceStore, logger zerolog.Logger) *DeviceCleanupJob {
	return &DeviceCleanupJob{
		cfg:     cfg,
		devices: devices,
		logger:  logger,
	}
}

// Start begins the cron loop. A no-op when disabled or already running.
func (j *DeviceCleanupJob) Start(ctx context.Context) {
	if !j.cfg.Enabled {
		j.logger.Info().Msg("Device cleanup disabled")
		return
	}

	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = true
	j.nextRunAt = nextRunAfter(time.Now().UTC(), j.cfg.Hour, j.cfg.Minute)
	j.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.loop(ctx)

	j.logger.Info().
		Int("hour", j.cfg.Hour).
		Int("minute", j.cfg.Minute).
		Time("next_run_at", j.nextRunAt).
		Msg("Device cleanup scheduled")
}

// Stop stops the cron loop and waits for an in-flight run to finish.
func (j *DeviceCleanupJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	j.mu.Unlock()

	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
	j.logger.Info().Msg("Device cleanup stopped")
}

func (j *DeviceCleanupJob) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(cleanupTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			now = now.UTC()
			j.mu.Lock()
			due := !now.Before(j.nextRunAt)
			j.mu.Unlock()
			if !due {
				continue
			}

			j.runOnce(ctx, now)

			j.mu.Lock()
			j.lastRunAt = &now
			j.nextRunAt = nextRunAfter(now, j.cfg.Hour, j.cfg.Minute)
			j.mu.Unlock()
		}
	}
}

// runOnce deletes devices whose last_used_at is older than the TTL.
func (j *DeviceCleanupJob) runOnce(ctx context.Context, now time.Time) {
	cutoff := now.Add(-j.cfg.DeviceTTL)
	purged, err := j.devices.PurgeUnused(ctx, cutoff)
	if err != nil {
		j.logger.Error().Err(err).Msg("Device cleanup run failed")
		return
	}
	metrics.DevicesPurged.Add(float64(purged))
	j.logger.Info().
		Int64("purged", purged).
		Time("cutoff", cutoff).
		Msg("Device cleanup run complete")
}

// LastRun returns when the job last completed, if it has.
func (j *DeviceCleanupJob) LastRun() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRunAt
}

// NextRun returns when the job will next fire.
func (j *DeviceCleanupJob) NextRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRunAt
}

// nextRunAfter computes the next hh:mm UTC occurrence strictly after now.
func nextRunAfter(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
