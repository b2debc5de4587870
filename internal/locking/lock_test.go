// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/hippocampus/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, db.AutoMigrate(&database.MaintenanceLease{}))
	return db
}

func setupLocker(t *testing.T) (*Locker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewLocker(setupTestDB(t)).WithTTL(time.Minute).WithClock(clock.Now), clock
}

func TestLease_Acquire_Success(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "retention", "worker-1")
	require.NoError(t, err)
	assert.True(t, acquired)

	holder, err := locker.Holder(ctx, "retention")
	require.NoError(t, err)
	assert.Equal(t, "worker-1", holder)
}

func TestLease_Acquire_AlreadyHeld(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "retention", "worker-1")
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = locker.Acquire(ctx, "retention", "worker-2")
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestLease_Acquire_SameHolderRenews(t *testing.T) {
	locker, clock := setupLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "retention", "worker-1")
	require.NoError(t, err)

	clock.now = clock.now.Add(30 * time.Second)
	acquired, err := locker.Acquire(ctx, "retention", "worker-1")
	require.NoError(t, err)
	assert.True(t, acquired)

	var lease database.MaintenanceLease
	require.NoError(t, locker.db.Where("name = ?", "retention").First(&lease).Error)
	assert.Equal(t, int64(2), lease.Version)
	assert.Equal(t, clock.now.Add(time.Minute), lease.ExpiresAt)
}

func TestLease_Acquire_Expired(t *testing.T) {
	locker, clock := setupLocker(t)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "retention", "worker-1")
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)

	holder, err := locker.Holder(ctx, "retention")
	require.NoError(t, err)
	assert.Empty(t, holder)

	acquired, err := locker.Acquire(ctx, "retention", "worker-2")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLease_Release(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	_, _ = locker.Acquire(ctx, "retention", "worker-1")

	// releasing someone else's lease is a no-op
	require.NoError(t, locker.Release(ctx, "retention", "worker-2"))
	holder, _ := locker.Holder(ctx, "retention")
	assert.Equal(t, "worker-1", holder)

	require.NoError(t, locker.Release(ctx, "retention", "worker-1"))
	holder, _ = locker.Holder(ctx, "retention")
	assert.Empty(t, holder)
}

func TestLease_WithLease(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	executed := false
	err := locker.WithLease(ctx, "retention", "worker-1", func(ctx context.Context) error {
		executed = true
		holder, err := locker.Holder(ctx, "retention")
		assert.NoError(t, err)
		assert.Equal(t, "worker-1", holder)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)

	holder, _ := locker.Holder(ctx, "retention")
	assert.Empty(t, holder)
}

func TestLease_WithLease_Held(t *testing.T) {
	locker, _ := setupLocker(t)
	ctx := context.Background()

	_, _ = locker.Acquire(ctx, "retention", "worker-1")

	err := locker.WithLease(ctx, "retention", "worker-2", func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	var leaseErr *LeaseError
	require.True(t, errors.As(err, &leaseErr))
	assert.Equal(t, "retention", leaseErr.Name)
}

func TestLease_WithLease_PropagatesError(t *testing.T) {
	locker, _ := setupLocker(t)
	boom := errors.New("boom")

	err := locker.WithLease(context.Background(), "retention", "worker-1", func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	holder, _ := locker.Holder(context.Background(), "retention")
	assert.Empty(t, holder)
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0

	err := RetryWithBackoff(3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return &ConflictError{Name: "test"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_MaxRetries(t *testing.T) {
	attempts := 0

	err := RetryWithBackoff(3, time.Millisecond, func() error {
		attempts++
		return &ConflictError{Name: "test"}
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_OtherErrorsStop(t *testing.T) {
	attempts := 0

	err := RetryWithBackoff(3, time.Millisecond, func() error {
		attempts++
		return errors.New("fatal")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
