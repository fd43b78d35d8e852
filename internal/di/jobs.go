// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/loonie/internal/clientdata"
	"github.com/aristath/loonie/internal/config"
	"github.com/aristath/loonie/internal/database"
	"github.com/aristath/loonie/internal/scheduler"
	"github.com/aristath/loonie/internal/services"
	"github.com/rs/zerolog"
)

// walCheckpointSchedule runs the WAL check every hour on the hour
const walCheckpointSchedule = "0 0 * * * *"

// RegisterJobs creates the background jobs and registers them with the scheduler.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	// ==========================================
	// Job 1: Exchange rate refresh
	// ==========================================
	rateRefresh := services.NewRateRefreshJob(container.ExchangeRateService, log)
	if err := container.Scheduler.AddJob(cfg.Jobs.RateRefreshSchedule, rateRefresh); err != nil {
		return nil, fmt.Errorf("failed to register rate refresh job: %w", err)
	}
	instances.RateRefresh = rateRefresh

	// ==========================================
	// Job 2: Expired client data cleanup
	// ==========================================
	cleanup := clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := container.Scheduler.AddJob(cfg.Jobs.CacheCleanupSchedule, cleanup); err != nil {
		return nil, fmt.Errorf("failed to register client data cleanup job: %w", err)
	}
	instances.ClientDataCleanup = cleanup

	// ==========================================
	// Job 3: WAL checkpoints
	// ==========================================
	walCheck := scheduler.NewCheckWALCheckpointsJob(map[string]*database.DB{
		"client_data": container.ClientDataDB,
	}, log)
	if err := container.Scheduler.AddJob(walCheckpointSchedule, walCheck); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}
	instances.CheckWALCheckpoints = walCheck

	log.Info().Int("jobs", len(container.Scheduler.Entries())).Msg("Jobs registered")

	return instances, nil
}
