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

package settings

import (
	"database/sql"
	"encoding/json"
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

var example = `
 * Show the current settings
 vitalog settings

 * Set the daily protein goal
 vitalog settings set default-goal 140

 * Stop tracking sleep
 vitalog settings set track-sleep false

 * Set the UI theme. Themes are per-device and never sync.
 vitalog settings set theme dark`

// deviceLocal names the keys that belong to this device only. Setting
// them must not dirty the record, or they would ride along on the next
// push and leak onto other devices.
var deviceLocal = map[string]bool{
	"api-key": true,
	"theme":   true,
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if args[0] != "set" || len(args) != 3 {
		return errors.New("usage: vitalog settings [set <key> <value>]")
	}

	return nil
}

// NewCmd returns a new settings command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings [set <key> <value>]",
		Short:   "Show or change settings",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

// getOrInit reads the settings record, creating it with defaults the
// first time any setting is touched on this device.
func getOrInit(ctx context.VitalogCtx) (database.UserSettings, error) {
	s, err := database.GetUserSettings(ctx.DB)
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return s, errors.Wrap(err, "getting settings")
	}

	id, err := utils.GenerateUUID()
	if err != nil {
		return s, errors.Wrap(err, "generating uuid")
	}

	s = database.UserSettings{
		SyncMeta: database.SyncMeta{
			UUID:      id,
			UpdatedAt: database.Timestamp(ctx.Clock, 0),
		},
		DietaryPreferences: "[]",
		TrackSleep:         true,
		TrackTraining:      true,
		Theme:              "system",
	}
	if err := s.Insert(ctx.DB); err != nil {
		return s, errors.Wrap(err, "initializing settings")
	}

	return s, nil
}

func parseBool(val string) (bool, error) {
	ret, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.Errorf("invalid boolean %s", val)
	}

	return ret, nil
}

func set(ctx context.VitalogCtx, key, val string) error {
	s, err := getOrInit(ctx)
	if err != nil {
		return err
	}

	switch key {
	case "default-goal":
		goal, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing the goal")
		}
		if err := validate.Goal(goal); err != nil {
			return err
		}
		s.DefaultGoal = goal
	case "sleep-goal":
		goal, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing the sleep goal")
		}
		if err := validate.Duration(goal); err != nil {
			return err
		}
		s.SleepGoal = goal
	case "track-sleep":
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		s.TrackSleep = b
	case "track-training":
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		s.TrackTraining = b
	case "dietary-preferences":
		if !json.Valid([]byte(val)) {
			return errors.New("dietary preferences must be a JSON array, e.g. '[\"vegetarian\"]'")
		}
		s.DietaryPreferences = val
	case "api-key":
		s.APIKey = val
	case "theme":
		if val != "system" && val != "light" && val != "dark" {
			return errors.Errorf("invalid theme %s. must be one of: system, light, dark", val)
		}
		s.Theme = val
	default:
		return errors.Errorf("unknown setting %s", key)
	}

	// device-local keys never sync, so they must not bump the record version
	if !deviceLocal[key] {
		s.UpdatedAt = database.Timestamp(ctx.Clock, s.UpdatedAt)
	}

	if err := s.Update(ctx.DB); err != nil {
		return errors.Wrap(err, "saving settings")
	}

	log.Successf("set %s\n", key)

	return nil
}

func show(ctx context.VitalogCtx) error {
	s, err := database.GetUserSettings(ctx.DB)
	if err == sql.ErrNoRows {
		log.Plain("no settings yet. use 'vitalog settings set' to change one.\n")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}

	log.Plainf("default-goal         %d\n", s.DefaultGoal)
	log.Plainf("sleep-goal           %d\n", s.SleepGoal)
	log.Plainf("track-sleep          %t\n", s.TrackSleep)
	log.Plainf("track-training       %t\n", s.TrackTraining)
	log.Plainf("dietary-preferences  %s\n", s.DietaryPreferences)
	log.Plainf("theme                %s (device-local)\n", s.Theme)
	if s.APIKey != "" {
		log.Plainf("api-key              set (device-local)\n")
	} else {
		log.Plainf("api-key              not set\n")
	}

	return nil
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return show(ctx)
		}

		return set(ctx, args[1], args[2])
	}
}
