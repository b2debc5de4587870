// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tejzpr/hippocampus/internal/config"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/locking"
	"github.com/tejzpr/hippocampus/internal/memory"
)

// LeaseName identifies the retention job in maintenance_leases
const LeaseName = "retention"

// Scheduler handles periodic retention of memories
type Scheduler struct {
	engine    *engine.Engine
	locker    *locking.Locker
	retention config.RetentionConfig
	interval  time.Duration
	holder    string
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewScheduler creates a new scheduler. The lease outlives a single run
// by leaseMinutes so a crashed process does not block others for long.
func NewScheduler(eng *engine.Engine, retention config.RetentionConfig, intervalMinutes, leaseMinutes int) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		engine:    eng,
		locker:    locking.NewLocker(eng.Store().DB()).WithTTL(time.Duration(leaseMinutes) * time.Minute),
		retention: retention,
		interval:  time.Duration(intervalMinutes) * time.Minute,
		holder:    fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8]),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ticker.C:
				if err := s.RunOnce(context.Background()); err != nil {
					log.Printf("Retention run failed: %v", err)
				}
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// RunOnce consolidates, prunes and purges across every scope while
// holding the retention lease. It returns nil without doing anything
// when another process holds the lease.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	err := s.locker.WithLease(ctx, LeaseName, s.holder, s.run)
	var leaseErr *locking.LeaseError
	if errors.As(err, &leaseErr) {
		log.Printf("Skipping retention run: %v", err)
		return nil
	}
	return err
}

// run has no project of its own, so every pass covers all scopes.
func (s *Scheduler) run(ctx context.Context) error {
	consolidated, err := s.engine.Consolidate(ctx, memory.TierBoth, "")
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	pruned, err := s.engine.TieredPrune(ctx, memory.TierBoth, "", s.retention.LowDays, s.retention.MediumDays)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	purged, err := s.engine.PurgeSuperseded(ctx, memory.TierBoth, "", s.retention.SupersededDays)
	if err != nil {
		return fmt.Errorf("purge superseded: %w", err)
	}

	log.Printf("Retention run: %d duplicates removed, %d pruned, %d superseded purged",
		consolidated.Removed, pruned.TotalPruned, purged.Purged)
	return nil
}
