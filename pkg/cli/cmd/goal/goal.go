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

package goal

import (
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/utils"
	"github.com/vitalog/vitalog/pkg/cli/validate"
)

var dateFlag string

var example = `
 * Set today's protein goal
 vitalog goal 120

 * Set the goal for another day
 vitalog goal 140 --date 2024-07-02

 * Show the current goal
 vitalog goal`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new goal command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goal [grams]",
		Short:   "Set or show the daily protein goal",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&dateFlag, "date", "", "the goal date in YYYY-MM-DD (defaults to today)")

	return cmd
}

// Set upserts the goal for a date. A goal already set for the date is
// updated in place so a day has one live goal record.
func Set(ctx context.VitalogCtx, date string, grams int64) error {
	db := ctx.DB

	cur, err := database.GetDailyGoal(db, date)
	if errors.Cause(err) == sql.ErrNoRows {
		id, err := utils.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "generating uuid")
		}

		g := database.DailyGoal{
			SyncMeta: database.SyncMeta{
				UUID:      id,
				UpdatedAt: database.Timestamp(ctx.Clock, 0),
			},
			Date: date,
			Goal: grams,
		}
		if err := g.Insert(db); err != nil {
			return errors.Wrap(err, "saving daily goal")
		}

		return nil
	} else if err != nil {
		return errors.Wrap(err, "getting current goal")
	}

	cur.Goal = grams
	cur.UpdatedAt = database.Timestamp(ctx.Clock, cur.UpdatedAt)
	if err := cur.Update(db); err != nil {
		return errors.Wrap(err, "updating daily goal")
	}

	return nil
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		date := dateFlag
		if date == "" {
			date = ctx.Clock.Now().Format("2006-01-02")
		}
		if err := validate.Date(date); err != nil {
			return err
		}

		if len(args) == 0 {
			g, err := database.GetDailyGoal(ctx.DB, date)
			if errors.Cause(err) == sql.ErrNoRows {
				log.Plainf("no goal set for %s\n", date)
				return nil
			} else if err != nil {
				return errors.Wrap(err, "getting goal")
			}

			log.Plainf("%s: %dg protein\n", date, g.Goal)
			return nil
		}

		grams, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.New("goal must be a number of grams")
		}
		if err := validate.Goal(grams); err != nil {
			return err
		}

		if err := Set(ctx, date, grams); err != nil {
			return errors.Wrap(err, "setting goal")
		}

		log.Successf("goal for %s set to %dg\n", date, grams)

		return nil
	}
}
