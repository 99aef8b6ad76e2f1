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

package add

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

var proteinFlag float64
var dateFlag string
var sourceFlag string
var confidenceFlag string

var example = `
 * Log a food entry for today
 vitalog add "chicken breast" -p 42

 * Log a food entry for another day
 vitalog add "greek yogurt" -p 17 --date 2024-07-02

 * Record how the entry was captured
 vitalog add "protein bar" -p 20 --source label --confidence high`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <food>",
		Short:   "Log a food entry",
		Aliases: []string{"a"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.Float64VarP(&proteinFlag, "protein", "p", 0, "protein in grams")
	f.StringVar(&dateFlag, "date", "", "the entry date in YYYY-MM-DD (defaults to today)")
	f.StringVar(&sourceFlag, "source", "manual", "how the entry was captured (text|photo|manual|label)")
	f.StringVar(&confidenceFlag, "confidence", "high", "confidence of the protein estimate (high|medium|low)")

	return cmd
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		foodName := args[0]
		if foodName == "" {
			return errors.New("food name is empty")
		}

		date := dateFlag
		if date == "" {
			date = ctx.Clock.Now().Format("2006-01-02")
		}
		if err := validate.Date(date); err != nil {
			return err
		}
		if err := validate.Source(sourceFlag); err != nil {
			return err
		}
		if err := validate.Confidence(confidenceFlag); err != nil {
			return err
		}
		if proteinFlag < 0 {
			return errors.New("protein must not be negative")
		}

		id, err := utils.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "generating uuid")
		}

		now := ctx.Clock.Now().Unix()
		entry := database.FoodEntry{
			SyncMeta: database.SyncMeta{
				UUID:      id,
				UpdatedAt: database.Timestamp(ctx.Clock, 0),
			},
			Date:       date,
			Source:     sourceFlag,
			FoodName:   foodName,
			Protein:    proteinFlag,
			Confidence: confidenceFlag,
			CreatedAt:  now,
		}

		if err := entry.Insert(ctx.DB); err != nil {
			return errors.Wrap(err, "saving food entry")
		}

		log.Successf("logged %s\n", date)
		output.FoodEntry(entry)

		return nil
	}
}
