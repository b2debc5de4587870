// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package locking provides database-backed leases so that only one
// process runs a named background job at a time.
package locking

import (
	"fmt"
	"time"

	"github.com/tejzpr/hippocampus/internal/database"
)

// isExpired reports whether the lease has lapsed at now
func isExpired(l *database.MaintenanceLease, now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// ConflictError represents a version conflict while taking over a lease
type ConflictError struct {
	Name            string
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on lease %s: expected version %d", e.Name, e.ExpectedVersion)
}

// LeaseError represents a failure to obtain or keep a lease
type LeaseError struct {
	Name    string
	Holder  string
	Message string
}

func (e *LeaseError) Error() string {
	return e.Message
}
