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

package train

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
var notesFlag string
var dateFlag string

var example = `
 * Log a training session
 vitalog train legs -d 60

 * Log a session with notes
 vitalog train back -d 45 -n "deadlifts felt heavy"`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new train command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "train <muscle-group>",
		Short:   "Log a training session",
		Aliases: []string{"t"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.Int64VarP(&durationFlag, "duration", "d", 0, "session duration in minutes")
	f.StringVarP(&notesFlag, "notes", "n", "", "notes about the session")
	f.StringVar(&dateFlag, "date", "", "the entry date in YYYY-MM-DD (defaults to today)")

	return cmd
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		muscleGroup := args[0]
		if muscleGroup == "" {
			return errors.New("muscle group is empty")
		}

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

		id, err := utils.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "generating uuid")
		}

		entry := database.TrainingEntry{
			SyncMeta: database.SyncMeta{
				UUID:      id,
				UpdatedAt: database.Timestamp(ctx.Clock, 0),
			},
			Date:            date,
			MuscleGroup:     muscleGroup,
			DurationMinutes: durationFlag,
			Notes:           notesFlag,
			CreatedAt:       ctx.Clock.Now().Unix(),
		}

		if err := entry.Insert(ctx.DB); err != nil {
			return errors.Wrap(err, "saving training entry")
		}

		log.Successf("logged %s\n", date)
		output.TrainingEntry(entry)

		return nil
	}
}
