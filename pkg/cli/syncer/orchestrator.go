/* Copyright 2025 Vitalog Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package syncer

import (
	stdctx "context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/log"
)

// Stats summarizes one sync cycle
type Stats struct {
	Pulled int
	Pushed int
}

// Status is the persisted outcome of the last sync cycle plus the
// current dirty state
type Status struct {
	LastSyncTime  int64
	LastSyncError string
	DirtyCount    int
	Syncing       bool
}

// Orchestrator serializes sync cycles and coalesces triggers. Any
// number of Trigger calls while a cycle is running collapse into at
// most one follow-up cycle.
type Orchestrator struct {
	ctx      context.VitalogCtx
	handlers []Handler

	trigger chan struct{}

	mu      sync.Mutex
	syncing bool
}

func NewOrchestrator(ctx context.VitalogCtx, handlers []Handler) *Orchestrator {
	return &Orchestrator{
		ctx:      ctx,
		handlers: handlers,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a sync cycle. It never blocks; a pending request
// absorbs further ones.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) setSyncing(v bool) {
	o.mu.Lock()
	o.syncing = v
	o.mu.Unlock()
}

// Syncing reports whether a cycle is currently running.
func (o *Orchestrator) Syncing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.syncing
}

// RunCycle performs one pull-then-push cycle. Collections whose push
// hit a stale-version conflict get one extra pull-then-push round so
// that a merge the local side wins does not wait for the next cycle.
// The outcome is recorded in the system table either way.
func (o *Orchestrator) RunCycle(reqCtx stdctx.Context) (Stats, error) {
	o.setSyncing(true)
	defer o.setSyncing(false)

	stats, err := o.cycle(reqCtx, o.handlers)

	if recErr := o.recordOutcome(err); recErr != nil {
		if err == nil {
			err = recErr
		} else {
			log.Warnf("recording sync outcome: %v\n", recErr)
		}
	}

	return stats, err
}

func (o *Orchestrator) cycle(reqCtx stdctx.Context, handlers []Handler) (Stats, error) {
	var stats Stats

	pulled, err := Pull(reqCtx, o.ctx, handlers)
	stats.Pulled += pulled
	if err != nil {
		return stats, errors.Wrap(err, "pulling")
	}

	pushed, repull, err := Push(reqCtx, o.ctx, handlers)
	stats.Pushed += pushed
	if err != nil {
		return stats, errors.Wrap(err, "pushing")
	}

	if len(repull) > 0 {
		log.Debug("repulling %d conflicted collections\n", len(repull))

		pulled, err = Pull(reqCtx, o.ctx, repull)
		stats.Pulled += pulled
		if err != nil {
			return stats, errors.Wrap(err, "pulling conflicted collections")
		}

		pushed, _, err = Push(reqCtx, o.ctx, repull)
		stats.Pushed += pushed
		if err != nil {
			return stats, errors.Wrap(err, "pushing conflicted collections")
		}
	}

	return stats, nil
}

// FullResync drops the cursors and runs a cycle, refetching every
// collection from the beginning. Applying is idempotent, so existing
// rows are matched rather than duplicated, and dirty local changes
// survive the merge.
func (o *Orchestrator) FullResync(reqCtx stdctx.Context) (Stats, error) {
	if err := database.ResetCursors(o.ctx.DB); err != nil {
		return Stats{}, errors.Wrap(err, "resetting cursors")
	}

	return o.RunCycle(reqCtx)
}

func (o *Orchestrator) recordOutcome(syncErr error) error {
	db := o.ctx.DB

	if syncErr != nil {
		if err := database.UpsertSystem(db, consts.SystemLastSyncError, syncErr.Error()); err != nil {
			return errors.Wrap(err, "saving sync error")
		}

		return nil
	}

	now := o.ctx.Clock.Now().Unix()
	if err := database.UpsertSystem(db, consts.SystemLastSyncTime, fmt.Sprintf("%d", now)); err != nil {
		return errors.Wrap(err, "saving sync time")
	}
	if err := database.DeleteSystem(db, consts.SystemLastSyncError); err != nil {
		return errors.Wrap(err, "clearing sync error")
	}

	return nil
}

// Run blocks, syncing on every trigger until runCtx is canceled. When
// schedule is non-empty it is installed as a cron spec (e.g.
// "@every 5m") that fires a trigger.
func (o *Orchestrator) Run(runCtx stdctx.Context, schedule string) error {
	if schedule != "" {
		c := cron.New()
		if err := c.AddFunc(schedule, o.Trigger); err != nil {
			return errors.Wrapf(err, "scheduling %s", schedule)
		}

		c.Start()
		defer c.Stop()
	}

	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-o.trigger:
			stats, err := o.RunCycle(runCtx)
			if err != nil {
				log.Errorf("sync failed: %v\n", err)
			} else {
				log.Debug("synced: pulled %d, pushed %d\n", stats.Pulled, stats.Pushed)
			}
		}
	}
}

// ReadStatus assembles the persisted sync status for display.
func (o *Orchestrator) ReadStatus() (Status, error) {
	ret := Status{Syncing: o.Syncing()}
	db := o.ctx.DB

	var lastSync int64
	err := database.GetSystem(db, consts.SystemLastSyncTime, &lastSync)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return ret, errors.Wrap(err, "reading last sync time")
	}
	ret.LastSyncTime = lastSync

	var lastErr string
	err = database.GetSystem(db, consts.SystemLastSyncError, &lastErr)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return ret, errors.Wrap(err, "reading last sync error")
	}
	ret.LastSyncError = lastErr

	_, total, err := CountDirtyAll(db)
	if err != nil {
		return ret, err
	}
	ret.DirtyCount = total

	return ret, nil
}
