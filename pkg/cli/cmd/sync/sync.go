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

package sync

import (
	stdctx "context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/config"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/output"
	"github.com/vitalog/vitalog/pkg/cli/syncer"
)

var example = `
  * Sync changes in both directions
  vitalog sync

  * Refetch everything from the server
  vitalog sync --full

  * Keep syncing in the background on a schedule
  vitalog sync --watch

  * Show when the last sync happened and what is pending
  vitalog sync --status`

var isFullSync bool
var isWatch bool
var isStatus bool
var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync data with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&isFullSync, "full", "f", false, "resync all collections from the beginning instead of incrementally syncing only the changed data")
	f.BoolVarP(&isWatch, "watch", "w", false, "keep running and sync on a schedule")
	f.BoolVar(&isStatus, "status", false, "show the sync status without syncing")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func getSchedule(ctx context.VitalogCtx) string {
	cf, err := config.Read(ctx)
	if err != nil {
		log.Debug("reading config for schedule: %v\n", err)
		return "@every 5m"
	}
	if cf.AutoSyncInterval == "" {
		return "@every 5m"
	}

	return cf.AutoSyncInterval
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		if isStatus {
			orch := syncer.NewOrchestrator(ctx, syncer.DefaultHandlers())

			status, err := orch.ReadStatus()
			if err != nil {
				return errors.Wrap(err, "reading sync status")
			}
			output.SyncStatus(status.LastSyncTime, status.LastSyncError, status.DirtyCount)

			return nil
		}

		if ctx.SessionKey == "" {
			log.Error("not logged in. please run `vitalog login`\n")
			return nil
		}

		orch := syncer.NewOrchestrator(ctx, syncer.DefaultHandlers())

		if isWatch {
			runCtx, stop := signal.NotifyContext(stdctx.Background(), os.Interrupt)
			defer stop()

			schedule := getSchedule(ctx)
			log.Infof("watching for changes, syncing %s\n", schedule)

			orch.Trigger()
			err := orch.Run(runCtx, schedule)
			if errors.Cause(err) == stdctx.Canceled {
				return nil
			}
			return err
		}

		log.Infof("syncing with the server\n")

		var stats syncer.Stats
		var err error
		if isFullSync {
			stats, err = orch.FullResync(stdctx.Background())
		} else {
			stats, err = orch.RunCycle(stdctx.Background())
		}
		if err != nil {
			return errors.Wrap(err, "syncing")
		}

		output.SyncSummary(stats.Pulled, stats.Pushed)

		status, err := orch.ReadStatus()
		if err != nil {
			return errors.Wrap(err, "reading sync status")
		}
		if status.DirtyCount > 0 {
			log.Warnf("%d changes could not be pushed and will be retried\n", status.DirtyCount)
		}

		return nil
	}
}
