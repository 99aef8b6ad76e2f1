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

package ls

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/output"
	"github.com/vitalog/vitalog/pkg/cli/validate"
)

var example = `
 * List today's entries
 vitalog ls

 * List entries for another day
 vitalog ls 2024-07-02`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new ls command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [date]",
		Short:   "List entries for a day",
		Aliases: []string{"l", "list"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func getGoal(ctx context.VitalogCtx, date string) (int64, error) {
	g, err := database.GetDailyGoal(ctx.DB, date)
	if err == nil {
		return g.Goal, nil
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return 0, errors.Wrap(err, "getting daily goal")
	}

	// fall back to the default goal from settings
	s, err := database.GetUserSettings(ctx.DB)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrap(err, "getting settings")
	}

	return s.DefaultGoal, nil
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var date string
		if len(args) == 1 {
			date = args[0]
		} else {
			date = ctx.Clock.Now().Format("2006-01-02")
		}
		if err := validate.Date(date); err != nil {
			return err
		}

		db := ctx.DB

		foods, err := database.GetFoodEntriesForDate(db, date)
		if err != nil {
			return errors.Wrap(err, "getting food entries")
		}

		var totalProtein float64
		for _, e := range foods {
			totalProtein += e.Protein
		}

		goal, err := getGoal(ctx, date)
		if err != nil {
			return err
		}

		output.DaySummary(date, totalProtein, goal)
		for _, e := range foods {
			output.FoodEntry(e)
		}
		if len(foods) == 0 {
			log.Plain("  no food entries\n")
		}

		sleeps, err := database.GetSleepEntriesForDate(db, date)
		if err != nil {
			return errors.Wrap(err, "getting sleep entries")
		}
		if len(sleeps) > 0 {
			log.Info("sleep\n")
			for _, e := range sleeps {
				output.SleepEntry(e)
			}
		}

		trainings, err := database.GetTrainingEntriesForDate(db, date)
		if err != nil {
			return errors.Wrap(err, "getting training entries")
		}
		if len(trainings) > 0 {
			log.Info("training\n")
			for _, e := range trainings {
				output.TrainingEntry(e)
			}
		}

		return nil
	}
}
