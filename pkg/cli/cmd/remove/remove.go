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

package remove

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/syncer"
	"github.com/vitalog/vitalog/pkg/cli/ui"
	"github.com/vitalog/vitalog/pkg/cli/utils"
)

var yesFlag bool

var example = `
 * Remove a food entry
 vitalog remove food 12

 * Remove a sleep entry without confirmation
 vitalog remove sleep 4 -y`

// tables maps the entry type argument to its record table
var tables = map[string]string{
	"food":  consts.CollectionFoodEntries,
	"sleep": consts.CollectionSleepEntries,
	"train": consts.CollectionTrainingEntries,
	"goal":  consts.CollectionDailyGoals,
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("incorrect number of arguments")
	}
	if _, ok := tables[args[0]]; !ok {
		return errors.Errorf("unknown entry type %s", args[0])
	}
	if !utils.IsNumber(args[1]) {
		return errors.New("the id must be a number")
	}

	return nil
}

// NewCmd returns a new remove command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <food|sleep|train|goal> <id>",
		Short:   "Remove an entry",
		Aliases: []string{"rm", "d"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without asking for confirmation")

	return cmd
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		table := tables[args[0]]
		rowID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing the id")
		}

		meta, err := database.GetSyncMeta(ctx.DB, table, rowID)
		if err != nil {
			return errors.Wrap(err, "getting the entry")
		}
		if meta.Deleted() {
			return errors.New("the entry is already removed")
		}

		if !yesFlag {
			ok, err := ui.Confirm("remove this entry?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted\n")
				return nil
			}
		}

		if err := syncer.Delete(ctx.DB, ctx.Clock, table, meta); err != nil {
			return errors.Wrap(err, "removing the entry")
		}

		log.Success("removed. the deletion will propagate on the next sync\n")

		return nil
	}
}
