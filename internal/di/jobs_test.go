package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterJobs(t *testing.T) {
	cfg := testConfig(t)
	container := setupServices(t, cfg)

	jobs, err := RegisterJobs(container, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.NotNil(t, container.Scheduler)

	assert.Equal(t, "rate_refresh", jobs.RateRefresh.Name())
	assert.Equal(t, "client_data_cleanup", jobs.ClientDataCleanup.Name())
	assert.Equal(t, "check_wal_checkpoints", jobs.CheckWALCheckpoints.Name())

	entries := container.Scheduler.Entries()
	require.Len(t, entries, 3)
	schedules := map[string]string{}
	for _, e := range entries {
		schedules[e.Name] = e.Schedule
	}
	assert.Equal(t, "@every 30m", schedules["rate_refresh"])
	assert.Equal(t, "@daily", schedules["client_data_cleanup"])
	assert.Equal(t, walCheckpointSchedule, schedules["check_wal_checkpoints"])

	// Maintenance jobs run cleanly against the real database
	assert.NoError(t, jobs.ClientDataCleanup.Run())
	assert.NoError(t, jobs.CheckWALCheckpoints.Run())
}

func TestRegisterJobs_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Jobs.RateRefreshSchedule = "every now and then"
	container := setupServices(t, cfg)

	jobs, err := RegisterJobs(container, cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, jobs)
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	jobs, err := RegisterJobs(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, jobs)
}
