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

package edit

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/output"
	"github.com/vitalog/vitalog/pkg/cli/ui"
	"github.com/vitalog/vitalog/pkg/cli/utils"
	"github.com/vitalog/vitalog/pkg/cli/validate"
)

var nameFlag string
var proteinFlag float64
var durationFlag int64
var qualityFlag int64
var notesFlag string

var example = `
 * Rename a food entry and correct its protein
 vitalog edit food 12 --name "grilled chicken" -p 38

 * Correct a sleep entry
 vitalog edit sleep 4 -d 410 -q 3

 * Open an editor for training notes
 vitalog edit train 7`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errors.New("incorrect number of arguments")
	}
	if !utils.IsNumber(args[1]) {
		return errors.New("the id must be a number")
	}

	return nil
}

// NewCmd returns a new edit command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <food|sleep|train> <id>",
		Short:   "Edit an entry",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&nameFlag, "name", "", "the new food name")
	f.Float64VarP(&proteinFlag, "protein", "p", -1, "the new protein in grams")
	f.Int64VarP(&durationFlag, "duration", "d", 0, "the new duration in minutes")
	f.Int64VarP(&qualityFlag, "quality", "q", 0, "the new sleep quality from 1 to 5")
	f.StringVarP(&notesFlag, "notes", "n", "", "the new training notes")

	return cmd
}

func editFood(ctx context.VitalogCtx, rowID int64) error {
	e, err := database.GetFoodEntry(ctx.DB, rowID)
	if err != nil {
		return errors.Wrap(err, "getting food entry")
	}

	if nameFlag == "" && proteinFlag < 0 {
		return errors.New("nothing to change. provide --name or --protein")
	}

	if nameFlag != "" {
		e.FoodName = nameFlag
	}
	if proteinFlag >= 0 {
		e.Protein = proteinFlag
	}
	e.UpdatedAt = database.Timestamp(ctx.Clock, e.UpdatedAt)

	if err := e.Update(ctx.DB); err != nil {
		return errors.Wrap(err, "updating food entry")
	}

	log.Success("edited\n")
	output.FoodEntry(e)

	return nil
}

func editSleep(ctx context.VitalogCtx, rowID int64) error {
	e, err := database.GetSleepEntry(ctx.DB, rowID)
	if err != nil {
		return errors.Wrap(err, "getting sleep entry")
	}

	if durationFlag == 0 && qualityFlag == 0 {
		return errors.New("nothing to change. provide --duration or --quality")
	}

	if durationFlag != 0 {
		if err := validate.Duration(durationFlag); err != nil {
			return err
		}
		e.DurationMinutes = durationFlag
	}
	if qualityFlag != 0 {
		if err := validate.Quality(qualityFlag); err != nil {
			return err
		}
		e.Quality = qualityFlag
	}
	e.UpdatedAt = database.Timestamp(ctx.Clock, e.UpdatedAt)

	if err := e.Update(ctx.DB); err != nil {
		return errors.Wrap(err, "updating sleep entry")
	}

	log.Success("edited\n")
	output.SleepEntry(e)

	return nil
}

func getTrainingNotes(ctx context.VitalogCtx, current string) (string, error) {
	if notesFlag != "" {
		return notesFlag, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporary content file path")
	}

	notes, err := ui.GetEditorInput(ctx, fpath, current)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return notes, nil
}

func editTrain(ctx context.VitalogCtx, rowID int64) error {
	e, err := database.GetTrainingEntry(ctx.DB, rowID)
	if err != nil {
		return errors.Wrap(err, "getting training entry")
	}

	if durationFlag != 0 {
		if err := validate.Duration(durationFlag); err != nil {
			return err
		}
		e.DurationMinutes = durationFlag
	}
	if notesFlag != "" {
		e.Notes = notesFlag
	} else if durationFlag == 0 {
		// nothing given on the command line: edit the notes in the editor
		notes, err := getTrainingNotes(ctx, e.Notes)
		if err != nil {
			return err
		}
		e.Notes = notes
	}
	e.UpdatedAt = database.Timestamp(ctx.Clock, e.UpdatedAt)

	if err := e.Update(ctx.DB); err != nil {
		return errors.Wrap(err, "updating training entry")
	}

	log.Success("edited\n")
	output.TrainingEntry(e)

	return nil
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		rowID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing the id")
		}

		switch args[0] {
		case "food":
			return editFood(ctx, rowID)
		case "sleep":
			return editSleep(ctx, rowID)
		case "train":
			return editTrain(ctx, rowID)
		}

		return errors.Errorf("unknown entry type %s", args[0])
	}
}
