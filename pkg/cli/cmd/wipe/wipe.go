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

package wipe

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/syncer"
	"github.com/vitalog/vitalog/pkg/cli/ui"
)

var yesFlag bool

var example = `
 vitalog wipe`

// NewCmd returns a new wipe command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wipe",
		Short:   "Erase all local records and sync state",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "wipe without asking for confirmation")

	return cmd
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if !yesFlag {
			log.Warnf("this erases every local record and sync cursor on this device.\n")
			log.Warnf("records already synced can be recovered by logging in and syncing again.\n")

			dirty, err := syncer.HasDirty(ctx.DB)
			if err != nil {
				return errors.Wrap(err, "checking for unpushed changes")
			}
			if dirty {
				log.Warnf("there are unpushed changes. they will be lost permanently.\n")
			}

			ok, err := ui.Confirm("wipe local data?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted\n")
				return nil
			}
		}

		if err := syncer.Wipe(ctx.DB); err != nil {
			return errors.Wrap(err, "wiping local data")
		}

		log.Success("wiped\n")

		return nil
	}
}
