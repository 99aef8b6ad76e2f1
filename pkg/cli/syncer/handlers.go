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

package syncer

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

// remoteMeta builds the local sync columns for a record taken from the
// remote. The remote uuid is kept when present so that a create whose
// confirmation was lost in a crash reconciles with the original row.
func remoteMeta(rec client.RemoteRecord) database.SyncMeta {
	id := rec.UUID
	if id == "" {
		id = uuid.NewString()
	}

	return database.SyncMeta{
		UUID:      id,
		SyncID:    rec.SyncID,
		UpdatedAt: rec.UpdatedAt,
		DeletedAt: rec.DeletedAt,
		PushedAt:  rec.UpdatedAt,
	}
}

// adoptRemote overwrites the local sync columns with the remote version
// while keeping the local identity
func adoptRemote(local *database.SyncMeta, rec client.RemoteRecord) {
	local.SyncID = rec.SyncID
	local.UpdatedAt = rec.UpdatedAt
	local.DeletedAt = rec.DeletedAt
	local.PushedAt = rec.UpdatedAt
}

type foodHandler struct{}

func (h foodHandler) Collection() string { return consts.CollectionFoodEntries }

func (h foodHandler) ApplyRemote(tx *database.DB, rec client.RemoteRecord) error {
	var p client.FoodEntryPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return errors.Wrapf(ErrMalformed, "food entry %s: %v", rec.SyncID, err)
		}
	} else if !rec.Tombstone() {
		return errors.Wrapf(ErrMalformed, "food entry %s: missing payload", rec.SyncID)
	}

	local, err := scanOneFood(tx, rec)
	if err == sql.ErrNoRows {
		e := database.FoodEntry{
			SyncMeta:   remoteMeta(rec),
			Date:       p.Date,
			Source:     p.Source,
			FoodName:   p.FoodName,
			Protein:    p.Protein,
			Confidence: p.Confidence,
			ImageData:  p.ImageData,
			CreatedAt:  p.CreatedAt,
		}
		return e.Insert(tx)
	} else if err != nil {
		return errors.Wrapf(err, "getting local food entry %s", rec.SyncID)
	}

	outcome, err := applyVersioned(tx, h.Collection(), local.SyncMeta, rec)
	if err != nil {
		return err
	}
	if outcome != TakeRemote {
		return nil
	}

	adoptRemote(&local.SyncMeta, rec)
	local.Date = p.Date
	local.Source = p.Source
	local.FoodName = p.FoodName
	local.Protein = p.Protein
	local.Confidence = p.Confidence
	local.ImageData = p.ImageData
	local.CreatedAt = p.CreatedAt

	return local.Update(tx)
}

func scanOneFood(tx *database.DB, rec client.RemoteRecord) (database.FoodEntry, error) {
	row := tx.QueryRow(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, source, food_name, protein, confidence, image_data, created_at
		FROM food_entries WHERE sync_id = ? OR uuid = ? LIMIT 1`, rec.SyncID, rec.UUID)

	var e database.FoodEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.Source, &e.FoodName, &e.Protein, &e.Confidence, &e.ImageData, &e.CreatedAt)
	return e, err
}

func (h foodHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	rows, err := db.Query(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, source, food_name, protein, confidence, image_data, created_at
		FROM food_entries WHERE sync_id = '' OR updated_at > pushed_at ORDER BY updated_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying dirty food entries")
	}
	defer rows.Close()

	var ret []Outbound
	for rows.Next() {
		var e database.FoodEntry
		if err := rows.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
			&e.Date, &e.Source, &e.FoodName, &e.Protein, &e.Confidence, &e.ImageData, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a dirty food entry")
		}

		payload, err := json.Marshal(client.FoodEntryPayload{
			Date:       e.Date,
			Source:     e.Source,
			FoodName:   e.FoodName,
			Protein:    e.Protein,
			Confidence: e.Confidence,
			ImageData:  e.ImageData,
			CreatedAt:  e.CreatedAt,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshaling food payload")
		}

		ret = append(ret, outbound(e.SyncMeta, payload))
	}

	return ret, errors.Wrap(rows.Err(), "iterating dirty food entries")
}

type sleepHandler struct{}

func (h sleepHandler) Collection() string { return consts.CollectionSleepEntries }

func (h sleepHandler) ApplyRemote(tx *database.DB, rec client.RemoteRecord) error {
	var p client.SleepEntryPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return errors.Wrapf(ErrMalformed, "sleep entry %s: %v", rec.SyncID, err)
		}
	} else if !rec.Tombstone() {
		return errors.Wrapf(ErrMalformed, "sleep entry %s: missing payload", rec.SyncID)
	}

	local, err := scanOneSleep(tx, rec)
	if err == sql.ErrNoRows {
		e := database.SleepEntry{
			SyncMeta:        remoteMeta(rec),
			Date:            p.Date,
			DurationMinutes: p.DurationMinutes,
			Quality:         p.Quality,
			CreatedAt:       p.CreatedAt,
		}
		return e.Insert(tx)
	} else if err != nil {
		return errors.Wrapf(err, "getting local sleep entry %s", rec.SyncID)
	}

	outcome, err := applyVersioned(tx, h.Collection(), local.SyncMeta, rec)
	if err != nil {
		return err
	}
	if outcome != TakeRemote {
		return nil
	}

	adoptRemote(&local.SyncMeta, rec)
	local.Date = p.Date
	local.DurationMinutes = p.DurationMinutes
	local.Quality = p.Quality
	local.CreatedAt = p.CreatedAt

	return local.Update(tx)
}

func scanOneSleep(tx *database.DB, rec client.RemoteRecord) (database.SleepEntry, error) {
	row := tx.QueryRow(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, duration_minutes, quality, created_at
		FROM sleep_entries WHERE sync_id = ? OR uuid = ? LIMIT 1`, rec.SyncID, rec.UUID)

	var e database.SleepEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.DurationMinutes, &e.Quality, &e.CreatedAt)
	return e, err
}

func (h sleepHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	rows, err := db.Query(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, duration_minutes, quality, created_at
		FROM sleep_entries WHERE sync_id = '' OR updated_at > pushed_at ORDER BY updated_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying dirty sleep entries")
	}
	defer rows.Close()

	var ret []Outbound
	for rows.Next() {
		var e database.SleepEntry
		if err := rows.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
			&e.Date, &e.DurationMinutes, &e.Quality, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a dirty sleep entry")
		}

		payload, err := json.Marshal(client.SleepEntryPayload{
			Date:            e.Date,
			DurationMinutes: e.DurationMinutes,
			Quality:         e.Quality,
			CreatedAt:       e.CreatedAt,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshaling sleep payload")
		}

		ret = append(ret, outbound(e.SyncMeta, payload))
	}

	return ret, errors.Wrap(rows.Err(), "iterating dirty sleep entries")
}

type trainingHandler struct{}

func (h trainingHandler) Collection() string { return consts.CollectionTrainingEntries }

func (h trainingHandler) ApplyRemote(tx *database.DB, rec client.RemoteRecord) error {
	var p client.TrainingEntryPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return errors.Wrapf(ErrMalformed, "training entry %s: %v", rec.SyncID, err)
		}
	} else if !rec.Tombstone() {
		return errors.Wrapf(ErrMalformed, "training entry %s: missing payload", rec.SyncID)
	}

	local, err := scanOneTraining(tx, rec)
	if err == sql.ErrNoRows {
		e := database.TrainingEntry{
			SyncMeta:        remoteMeta(rec),
			Date:            p.Date,
			MuscleGroup:     p.MuscleGroup,
			DurationMinutes: p.DurationMinutes,
			Notes:           p.Notes,
			CreatedAt:       p.CreatedAt,
		}
		return e.Insert(tx)
	} else if err != nil {
		return errors.Wrapf(err, "getting local training entry %s", rec.SyncID)
	}

	outcome, err := applyVersioned(tx, h.Collection(), local.SyncMeta, rec)
	if err != nil {
		return err
	}
	if outcome != TakeRemote {
		return nil
	}

	adoptRemote(&local.SyncMeta, rec)
	local.Date = p.Date
	local.MuscleGroup = p.MuscleGroup
	local.DurationMinutes = p.DurationMinutes
	local.Notes = p.Notes
	local.CreatedAt = p.CreatedAt

	return local.Update(tx)
}

func scanOneTraining(tx *database.DB, rec client.RemoteRecord) (database.TrainingEntry, error) {
	row := tx.QueryRow(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, muscle_group, duration_minutes, notes, created_at
		FROM training_entries WHERE sync_id = ? OR uuid = ? LIMIT 1`, rec.SyncID, rec.UUID)

	var e database.TrainingEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.MuscleGroup, &e.DurationMinutes, &e.Notes, &e.CreatedAt)
	return e, err
}

func (h trainingHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	rows, err := db.Query(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, muscle_group, duration_minutes, notes, created_at
		FROM training_entries WHERE sync_id = '' OR updated_at > pushed_at ORDER BY updated_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying dirty training entries")
	}
	defer rows.Close()

	var ret []Outbound
	for rows.Next() {
		var e database.TrainingEntry
		if err := rows.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
			&e.Date, &e.MuscleGroup, &e.DurationMinutes, &e.Notes, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a dirty training entry")
		}

		payload, err := json.Marshal(client.TrainingEntryPayload{
			Date:            e.Date,
			MuscleGroup:     e.MuscleGroup,
			DurationMinutes: e.DurationMinutes,
			Notes:           e.Notes,
			CreatedAt:       e.CreatedAt,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshaling training payload")
		}

		ret = append(ret, outbound(e.SyncMeta, payload))
	}

	return ret, errors.Wrap(rows.Err(), "iterating dirty training entries")
}

type goalHandler struct{}

func (h goalHandler) Collection() string { return consts.CollectionDailyGoals }

func (h goalHandler) ApplyRemote(tx *database.DB, rec client.RemoteRecord) error {
	var p client.DailyGoalPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return errors.Wrapf(ErrMalformed, "daily goal %s: %v", rec.SyncID, err)
		}
	} else if !rec.Tombstone() {
		return errors.Wrapf(ErrMalformed, "daily goal %s: missing payload", rec.SyncID)
	}

	local, err := scanOneGoal(tx, rec)
	if err == sql.ErrNoRows {
		g := database.DailyGoal{
			SyncMeta: remoteMeta(rec),
			Date:     p.Date,
			Goal:     p.Goal,
		}
		return g.Insert(tx)
	} else if err != nil {
		return errors.Wrapf(err, "getting local daily goal %s", rec.SyncID)
	}

	outcome, err := applyVersioned(tx, h.Collection(), local.SyncMeta, rec)
	if err != nil {
		return err
	}
	if outcome != TakeRemote {
		return nil
	}

	adoptRemote(&local.SyncMeta, rec)
	local.Date = p.Date
	local.Goal = p.Goal

	return local.Update(tx)
}

func scanOneGoal(tx *database.DB, rec client.RemoteRecord) (database.DailyGoal, error) {
	row := tx.QueryRow(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, goal
		FROM daily_goals WHERE sync_id = ? OR uuid = ? LIMIT 1`, rec.SyncID, rec.UUID)

	var g database.DailyGoal
	err := row.Scan(&g.RowID, &g.UUID, &g.SyncID, &g.UpdatedAt, &g.DeletedAt, &g.PushedAt, &g.Date, &g.Goal)
	return g, err
}

func (h goalHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	rows, err := db.Query(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, goal
		FROM daily_goals WHERE sync_id = '' OR updated_at > pushed_at ORDER BY updated_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying dirty daily goals")
	}
	defer rows.Close()

	var ret []Outbound
	for rows.Next() {
		var g database.DailyGoal
		if err := rows.Scan(&g.RowID, &g.UUID, &g.SyncID, &g.UpdatedAt, &g.DeletedAt, &g.PushedAt, &g.Date, &g.Goal); err != nil {
			return nil, errors.Wrap(err, "scanning a dirty daily goal")
		}

		payload, err := json.Marshal(client.DailyGoalPayload{Date: g.Date, Goal: g.Goal})
		if err != nil {
			return nil, errors.Wrap(err, "marshaling goal payload")
		}

		ret = append(ret, outbound(g.SyncMeta, payload))
	}

	return ret, errors.Wrap(rows.Err(), "iterating dirty daily goals")
}

type settingsHandler struct{}

func (h settingsHandler) Collection() string { return consts.CollectionUserSettings }

// ApplyRemote merges the singleton settings record. Only the synced
// partition is ever written; the device-local columns keep their local
// values no matter which side wins.
func (h settingsHandler) ApplyRemote(tx *database.DB, rec client.RemoteRecord) error {
	var p client.UserSettingsPayload
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return errors.Wrapf(ErrMalformed, "user settings %s: %v", rec.SyncID, err)
		}
	} else if !rec.Tombstone() {
		return errors.Wrapf(ErrMalformed, "user settings %s: missing payload", rec.SyncID)
	}

	prefs := string(p.DietaryPreferences)
	if prefs == "" {
		prefs = "[]"
	}

	local, err := database.GetUserSettings(tx)
	if err == sql.ErrNoRows {
		s := database.UserSettings{
			SyncMeta:           remoteMeta(rec),
			DefaultGoal:        p.DefaultGoal,
			SleepGoal:          p.SleepGoal,
			TrackSleep:         p.TrackSleep,
			TrackTraining:      p.TrackTraining,
			DietaryPreferences: prefs,
			Theme:              "system",
		}
		return s.Insert(tx)
	} else if err != nil {
		return errors.Wrap(err, "getting local user settings")
	}

	outcome, err := applyVersioned(tx, h.Collection(), local.SyncMeta, rec)
	if err != nil {
		return err
	}
	if outcome != TakeRemote {
		return nil
	}

	adoptRemote(&local.SyncMeta, rec)
	local.DefaultGoal = p.DefaultGoal
	local.SleepGoal = p.SleepGoal
	local.TrackSleep = p.TrackSleep
	local.TrackTraining = p.TrackTraining
	local.DietaryPreferences = prefs

	return local.Update(tx)
}

func (h settingsHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	s, err := database.GetUserSettings(db)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "getting local user settings")
	}

	if !s.Dirty() {
		return nil, nil
	}

	prefs := s.DietaryPreferences
	if prefs == "" {
		prefs = "[]"
	}

	payload, err := json.Marshal(client.UserSettingsPayload{
		DefaultGoal:        s.DefaultGoal,
		SleepGoal:          s.SleepGoal,
		TrackSleep:         s.TrackSleep,
		TrackTraining:      s.TrackTraining,
		DietaryPreferences: json.RawMessage(prefs),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling settings payload")
	}

	return []Outbound{outbound(s.SyncMeta, payload)}, nil
}

func outbound(m database.SyncMeta, payload json.RawMessage) Outbound {
	return Outbound{
		RowID:     m.RowID,
		UUID:      m.UUID,
		SyncID:    m.SyncID,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAt,
		PushedAt:  m.PushedAt,
		Payload:   payload,
	}
}
