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

package sleep

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/output"
	"github.com/vitalog/vitalog/pkg/cli/utils"
	"github.com/vitalog/vitalog/pkg/cli/validate"
)

var durationFlag int64
var qualityFlag int64
var dateFlag string

var example = `
 * Log last night's sleep
 vitalog sleep -d 440 -q 4

 * Log sleep for another day
 vitalog sleep -d 380 -q 2 --date 2024-07-02`

// NewCmd returns a new sleep command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sleep",
		Short:   "Log a sleep entry",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.Int64VarP(&durationFlag, "duration", "d", 0, "sleep duration in minutes")
	f.Int64VarP(&qualityFlag, "quality", "q", 3, "sleep quality from 1 to 5")
	f.StringVar(&dateFlag, "date", "", "the entry date in YYYY-MM-DD (defaults to today)")

	return cmd
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
		if err := validate.Duration(durationFlag); err != nil {
			return err
		}
		if err := validate.Quality(qualityFlag); err != nil {
			return err
		}

		id, err := utils.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "generating uuid")
		}

		entry := database.SleepEntry{
			SyncMeta: database.SyncMeta{
				UUID:      id,
				UpdatedAt: database.Timestamp(ctx.Clock, 0),
			},
			Date:            date,
			DurationMinutes: durationFlag,
			Quality:         qualityFlag,
			CreatedAt:       ctx.Clock.Now().Unix(),
		}

		if err := entry.Insert(ctx.DB); err != nil {
			return errors.Wrap(err, "saving sleep entry")
		}

		log.Successf("logged %s\n", date)
		output.SleepEntry(entry)

		return nil
	}
}
