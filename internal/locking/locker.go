// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tejzpr/hippocampus/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLeaseTTL is the default time-to-live for leases
const DefaultLeaseTTL = 10 * time.Minute

// MaxRetries is the default number of takeover attempts
const MaxRetries = 3

// RetryDelay is the delay before the first retry
const RetryDelay = 50 * time.Millisecond

// Locker hands out maintenance leases
type Locker struct {
	db       *gorm.DB
	leaseTTL time.Duration
	retries  int
	now      func() time.Time
}

// NewLocker creates a new locker instance
func NewLocker(db *gorm.DB) *Locker {
	return &Locker{
		db:       db,
		leaseTTL: DefaultLeaseTTL,
		retries:  MaxRetries,
		now:      time.Now,
	}
}

// WithTTL sets a custom TTL for leases
func (l *Locker) WithTTL(ttl time.Duration) *Locker {
	l.leaseTTL = ttl
	return l
}

// WithRetries sets a custom number of takeover attempts
func (l *Locker) WithRetries(retries int) *Locker {
	l.retries = retries
	return l
}

// WithClock replaces the time source
func (l *Locker) WithClock(now func() time.Time) *Locker {
	l.now = now
	return l
}

func (l *Locker) timestamp() time.Time {
	return l.now().UTC().Truncate(time.Microsecond)
}

// Acquire attempts to take the named lease for holder.
// Returns true if acquired, false if another holder has an unexpired lease.
func (l *Locker) Acquire(ctx context.Context, name, holder string) (bool, error) {
	var acquired bool
	err := RetryWithBackoff(l.retries, RetryDelay, func() error {
		var err error
		acquired, err = l.tryAcquire(ctx, name, holder)
		return err
	})
	return acquired, err
}

func (l *Locker) tryAcquire(ctx context.Context, name, holder string) (bool, error) {
	db := l.db.WithContext(ctx)
	now := l.timestamp()
	expiresAt := now.Add(l.leaseTTL)

	lease := database.MaintenanceLease{
		Name:      name,
		Version:   1,
		Holder:    holder,
		ClaimedAt: now,
		ExpiresAt: expiresAt,
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lease)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create lease: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var existing database.MaintenanceLease
	if err := db.Where("name = ?", name).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// released between the insert and the read
			return false, &ConflictError{Name: name}
		}
		return false, err
	}

	// Held by someone else and not expired
	if !isExpired(&existing, now) && existing.Holder != holder {
		return false, nil
	}

	// Take over the lease
	result = db.Model(&database.MaintenanceLease{}).
		Where("name = ? AND version = ?", name, existing.Version).
		Updates(map[string]interface{}{
			"holder":     holder,
			"claimed_at": now,
			"expires_at": expiresAt,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, &ConflictError{Name: name, ExpectedVersion: existing.Version}
	}
	return true, nil
}

// Release gives up a lease held by holder
func (l *Locker) Release(ctx context.Context, name, holder string) error {
	return l.db.WithContext(ctx).
		Where("name = ? AND holder = ?", name, holder).
		Delete(&database.MaintenanceLease{}).Error
}

// Holder returns who holds the named lease, or "" if it is free or expired
func (l *Locker) Holder(ctx context.Context, name string) (string, error) {
	var lease database.MaintenanceLease
	err := l.db.WithContext(ctx).Where("name = ?", name).First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if isExpired(&lease, l.timestamp()) {
		return "", nil
	}
	return lease.Holder, nil
}

// WithLease runs fn while holding the named lease and releases it after.
// A LeaseError is returned when another holder has the lease.
func (l *Locker) WithLease(ctx context.Context, name, holder string, fn func(ctx context.Context) error) error {
	acquired, err := l.Acquire(ctx, name, holder)
	if err != nil {
		return fmt.Errorf("failed to acquire lease: %w", err)
	}
	if !acquired {
		return &LeaseError{
			Name:    name,
			Holder:  holder,
			Message: fmt.Sprintf("lease %s is held by another process", name),
		}
	}

	// Release with a fresh context so a cancelled run still frees the lease
	defer l.Release(context.Background(), name, holder) //nolint:errcheck

	return fn(ctx)
}

// RetryWithBackoff retries a function with exponential backoff
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err := fn(); err != nil {
			lastErr = err
			// Only retry on conflict errors
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				return err
			}
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		} else {
			return nil
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
