package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeLocker records lock traffic without a live redis
type fakeLocker struct {
	acquired   bool
	acquireErr error

	acquires int
	releases int
	lockName string
}

func (l *fakeLocker) AcquireLock(ctx context.Context, lockName string, expiration time.Duration, retryCount int, retryDelay time.Duration) (bool, error) {
	l.acquires++
	l.lockName = lockName
	return l.acquired, l.acquireErr
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, lockName string) (bool, error) {
	l.releases++
	return true, nil
}

func TestRunMigrationsLocked(t *testing.T) {
	t.Run("lock held elsewhere", func(t *testing.T) {
		locker := &fakeLocker{acquired: false}

		err := RunMigrationsLocked(context.Background(), locker, NewMigrationConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "migration lock held")
		require.Equal(t, 1, locker.acquires)
		require.Equal(t, 0, locker.releases)
	})

	t.Run("lock acquisition failure", func(t *testing.T) {
		locker := &fakeLocker{acquireErr: errors.New("redis down")}

		err := RunMigrationsLocked(context.Background(), locker, NewMigrationConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to acquire migration lock")
		require.Equal(t, 0, locker.releases)
	})

	t.Run("lock released even when migrations fail", func(t *testing.T) {
		locker := &fakeLocker{acquired: true}

		// No database is initialized here, so the migration run itself
		// fails; the lock must be released regardless
		err := RunMigrationsLocked(context.Background(), locker, NewMigrationConfig())
		require.Error(t, err)
		require.Equal(t, "schema-migrations", locker.lockName)
		require.Equal(t, 1, locker.acquires)
		require.Equal(t, 1, locker.releases)
	})
}
