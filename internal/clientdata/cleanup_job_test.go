package clientdata

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleanupJob(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)
	job := NewCleanupJob(repo, zerolog.Nop())

	assert.NotNil(t, job)
}

func TestCleanupJobName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db, nil), zerolog.Nop())

	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	now := time.Now()
	repo := NewRepository(db, clockwork.NewFakeClockAt(now))
	job := NewCleanupJob(repo, zerolog.Nop())

	expiredAt := now.Add(-time.Hour).Unix()
	freshAt := now.Add(time.Hour).Unix()

	insertExpiredAndFresh(t, db, TableExchangeRate, "pair", expiredAt, freshAt)
	insertExpiredAndFresh(t, db, TableLocation, "scope", expiredAt, freshAt)

	var countBefore int
	require.NoError(t, db.QueryRow("SELECT (SELECT COUNT(*) FROM exchangerate) + (SELECT COUNT(*) FROM location)").Scan(&countBefore))
	assert.Equal(t, 4, countBefore)

	err := job.Run()
	require.NoError(t, err)

	var countAfter int
	require.NoError(t, db.QueryRow("SELECT (SELECT COUNT(*) FROM exchangerate) + (SELECT COUNT(*) FROM location)").Scan(&countAfter))
	assert.Equal(t, 2, countAfter)
}

func TestCleanupJobRun_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db, nil), zerolog.Nop())

	assert.NoError(t, job.Run())
}
