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

package database

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/clock"
)

// SyncMeta carries the sync columns shared by every synced record.
//
// RowID is the device-local identity and is never sent to the server.
// SyncID is the server-assigned identity; an empty SyncID means the
// record has never been pushed successfully. UpdatedAt strictly
// increases on every local write, including the write that sets
// DeletedAt. DeletedAt of zero marks a live record; non-zero marks a
// tombstone. PushedAt is the newest server state this device has
// reconciled against; a record is dirty when SyncID is empty or
// UpdatedAt is greater than PushedAt.
type SyncMeta struct {
	RowID     int64  `json:"rowid"`
	UUID      string `json:"uuid"`
	SyncID    string `json:"sync_id"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt int64  `json:"deleted_at"`
	PushedAt  int64  `json:"pushed_at"`
}

// Dirty returns true if the record has changes that have not been pushed
func (m SyncMeta) Dirty() bool {
	return m.SyncID == "" || m.UpdatedAt > m.PushedAt
}

// Deleted returns true if the record is a tombstone
func (m SyncMeta) Deleted() bool {
	return m.DeletedAt != 0
}

// Timestamp returns the updated_at value for a local write. It is the
// current wall clock except when the clock has not advanced past the
// record's previous updated_at, in which case it steps forward by one
// millisecond so that updated_at stays strictly increasing.
func Timestamp(clk clock.Clock, prev int64) int64 {
	now := clk.Now().UnixMilli()
	if now <= prev {
		return prev + 1
	}

	return now
}

// FoodEntry is a logged food item with its protein content
type FoodEntry struct {
	SyncMeta
	Date       string  `json:"date"`
	Source     string  `json:"source"`
	FoodName   string  `json:"food_name"`
	Protein    float64 `json:"protein"`
	Confidence string  `json:"confidence"`
	ImageData  string  `json:"image_data"`
	CreatedAt  int64   `json:"created_at"`
}

// Insert inserts a new food entry
func (e *FoodEntry) Insert(db *DB) error {
	res, err := db.Exec(`INSERT INTO food_entries
		(uuid, sync_id, updated_at, deleted_at, pushed_at, date, source, food_name, protein, confidence, image_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.Source, e.FoodName, e.Protein, e.Confidence, e.ImageData, e.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "inserting food entry %s", e.UUID)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "getting rowid of food entry")
	}
	e.RowID = rowID

	return nil
}

// Update updates the food entry with the given data
func (e FoodEntry) Update(db *DB) error {
	_, err := db.Exec(`UPDATE food_entries SET
		sync_id = ?, updated_at = ?, deleted_at = ?, pushed_at = ?, date = ?, source = ?, food_name = ?, protein = ?, confidence = ?, image_data = ?, created_at = ?
		WHERE id = ?`,
		e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.Source, e.FoodName, e.Protein, e.Confidence, e.ImageData, e.CreatedAt, e.RowID)
	if err != nil {
		return errors.Wrapf(err, "updating food entry %s", e.UUID)
	}

	return nil
}

const foodEntryCols = "id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, source, food_name, protein, confidence, image_data, created_at"

func scanFoodEntry(row interface{ Scan(...interface{}) error }) (FoodEntry, error) {
	var e FoodEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.Source, &e.FoodName, &e.Protein, &e.Confidence, &e.ImageData, &e.CreatedAt)
	return e, err
}

// GetFoodEntry retrieves the food entry with the given local id
func GetFoodEntry(db *DB, rowID int64) (FoodEntry, error) {
	e, err := scanFoodEntry(db.QueryRow("SELECT "+foodEntryCols+" FROM food_entries WHERE id = ?", rowID))
	if err != nil {
		return e, errors.Wrapf(err, "querying food entry %d", rowID)
	}

	return e, nil
}

// GetFoodEntriesForDate retrieves the live food entries for the given date
func GetFoodEntriesForDate(db *DB, date string) ([]FoodEntry, error) {
	rows, err := db.Query("SELECT "+foodEntryCols+" FROM food_entries WHERE date = ? AND deleted_at = 0 ORDER BY created_at", date)
	if err != nil {
		return nil, errors.Wrap(err, "querying food entries")
	}
	defer rows.Close()

	var ret []FoodEntry
	for rows.Next() {
		e, err := scanFoodEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a food entry")
		}
		ret = append(ret, e)
	}

	return ret, errors.Wrap(rows.Err(), "iterating food entries")
}

// SleepEntry is a logged night of sleep
type SleepEntry struct {
	SyncMeta
	Date            string `json:"date"`
	DurationMinutes int64  `json:"duration_minutes"`
	Quality         int64  `json:"quality"`
	CreatedAt       int64  `json:"created_at"`
}

// Insert inserts a new sleep entry
func (e *SleepEntry) Insert(db *DB) error {
	res, err := db.Exec(`INSERT INTO sleep_entries
		(uuid, sync_id, updated_at, deleted_at, pushed_at, date, duration_minutes, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.DurationMinutes, e.Quality, e.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "inserting sleep entry %s", e.UUID)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "getting rowid of sleep entry")
	}
	e.RowID = rowID

	return nil
}

// Update updates the sleep entry with the given data
func (e SleepEntry) Update(db *DB) error {
	_, err := db.Exec(`UPDATE sleep_entries SET
		sync_id = ?, updated_at = ?, deleted_at = ?, pushed_at = ?, date = ?, duration_minutes = ?, quality = ?, created_at = ?
		WHERE id = ?`,
		e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.DurationMinutes, e.Quality, e.CreatedAt, e.RowID)
	if err != nil {
		return errors.Wrapf(err, "updating sleep entry %s", e.UUID)
	}

	return nil
}

const sleepEntryCols = "id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, duration_minutes, quality, created_at"

func scanSleepEntry(row interface{ Scan(...interface{}) error }) (SleepEntry, error) {
	var e SleepEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.DurationMinutes, &e.Quality, &e.CreatedAt)
	return e, err
}

// GetSleepEntry retrieves the sleep entry with the given local id
func GetSleepEntry(db *DB, rowID int64) (SleepEntry, error) {
	e, err := scanSleepEntry(db.QueryRow("SELECT "+sleepEntryCols+" FROM sleep_entries WHERE id = ?", rowID))
	if err != nil {
		return e, errors.Wrapf(err, "querying sleep entry %d", rowID)
	}

	return e, nil
}

// GetSleepEntriesForDate retrieves the live sleep entries for the given date
func GetSleepEntriesForDate(db *DB, date string) ([]SleepEntry, error) {
	rows, err := db.Query("SELECT "+sleepEntryCols+" FROM sleep_entries WHERE date = ? AND deleted_at = 0 ORDER BY created_at", date)
	if err != nil {
		return nil, errors.Wrap(err, "querying sleep entries")
	}
	defer rows.Close()

	var ret []SleepEntry
	for rows.Next() {
		e, err := scanSleepEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a sleep entry")
		}
		ret = append(ret, e)
	}

	return ret, errors.Wrap(rows.Err(), "iterating sleep entries")
}

// TrainingEntry is a logged training session
type TrainingEntry struct {
	SyncMeta
	Date            string `json:"date"`
	MuscleGroup     string `json:"muscle_group"`
	DurationMinutes int64  `json:"duration_minutes"`
	Notes           string `json:"notes"`
	CreatedAt       int64  `json:"created_at"`
}

// Insert inserts a new training entry
func (e *TrainingEntry) Insert(db *DB) error {
	res, err := db.Exec(`INSERT INTO training_entries
		(uuid, sync_id, updated_at, deleted_at, pushed_at, date, muscle_group, duration_minutes, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.MuscleGroup, e.DurationMinutes, e.Notes, e.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "inserting training entry %s", e.UUID)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "getting rowid of training entry")
	}
	e.RowID = rowID

	return nil
}

// Update updates the training entry with the given data
func (e TrainingEntry) Update(db *DB) error {
	_, err := db.Exec(`UPDATE training_entries SET
		sync_id = ?, updated_at = ?, deleted_at = ?, pushed_at = ?, date = ?, muscle_group = ?, duration_minutes = ?, notes = ?, created_at = ?
		WHERE id = ?`,
		e.SyncID, e.UpdatedAt, e.DeletedAt, e.PushedAt, e.Date, e.MuscleGroup, e.DurationMinutes, e.Notes, e.CreatedAt, e.RowID)
	if err != nil {
		return errors.Wrapf(err, "updating training entry %s", e.UUID)
	}

	return nil
}

const trainingEntryCols = "id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, muscle_group, duration_minutes, notes, created_at"

func scanTrainingEntry(row interface{ Scan(...interface{}) error }) (TrainingEntry, error) {
	var e TrainingEntry
	err := row.Scan(&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt,
		&e.Date, &e.MuscleGroup, &e.DurationMinutes, &e.Notes, &e.CreatedAt)
	return e, err
}

// GetTrainingEntry retrieves the training entry with the given local id
func GetTrainingEntry(db *DB, rowID int64) (TrainingEntry, error) {
	e, err := scanTrainingEntry(db.QueryRow("SELECT "+trainingEntryCols+" FROM training_entries WHERE id = ?", rowID))
	if err != nil {
		return e, errors.Wrapf(err, "querying training entry %d", rowID)
	}

	return e, nil
}

// GetTrainingEntriesForDate retrieves the live training entries for the given date
func GetTrainingEntriesForDate(db *DB, date string) ([]TrainingEntry, error) {
	rows, err := db.Query("SELECT "+trainingEntryCols+" FROM training_entries WHERE date = ? AND deleted_at = 0 ORDER BY created_at", date)
	if err != nil {
		return nil, errors.Wrap(err, "querying training entries")
	}
	defer rows.Close()

	var ret []TrainingEntry
	for rows.Next() {
		e, err := scanTrainingEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a training entry")
		}
		ret = append(ret, e)
	}

	return ret, errors.Wrap(rows.Err(), "iterating training entries")
}

// DailyGoal is a per-date protein target overriding the default goal
type DailyGoal struct {
	SyncMeta
	Date string `json:"date"`
	Goal int64  `json:"goal"`
}

// Insert inserts a new daily goal
func (g *DailyGoal) Insert(db *DB) error {
	res, err := db.Exec(`INSERT INTO daily_goals
		(uuid, sync_id, updated_at, deleted_at, pushed_at, date, goal)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UUID, g.SyncID, g.UpdatedAt, g.DeletedAt, g.PushedAt, g.Date, g.Goal)
	if err != nil {
		return errors.Wrapf(err, "inserting daily goal %s", g.UUID)
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "getting rowid of daily goal")
	}
	g.RowID = rowID

	return nil
}

// Update updates the daily goal with the given data
func (g DailyGoal) Update(db *DB) error {
	_, err := db.Exec(`UPDATE daily_goals SET
		sync_id = ?, updated_at = ?, deleted_at = ?, pushed_at = ?, date = ?, goal = ?
		WHERE id = ?`,
		g.SyncID, g.UpdatedAt, g.DeletedAt, g.PushedAt, g.Date, g.Goal, g.RowID)
	if err != nil {
		return errors.Wrapf(err, "updating daily goal %s", g.UUID)
	}

	return nil
}

const dailyGoalCols = "id, uuid, sync_id, updated_at, deleted_at, pushed_at, date, goal"

func scanDailyGoal(row interface{ Scan(...interface{}) error }) (DailyGoal, error) {
	var g DailyGoal
	err := row.Scan(&g.RowID, &g.UUID, &g.SyncID, &g.UpdatedAt, &g.DeletedAt, &g.PushedAt, &g.Date, &g.Goal)
	return g, err
}

// GetDailyGoal retrieves the live daily goal for the given date. If edits
// from multiple devices produced more than one goal for a date, the most
// recently updated one wins.
func GetDailyGoal(db *DB, date string) (DailyGoal, error) {
	g, err := scanDailyGoal(db.QueryRow(
		"SELECT "+dailyGoalCols+" FROM daily_goals WHERE date = ? AND deleted_at = 0 ORDER BY updated_at DESC LIMIT 1", date))
	if err != nil {
		return g, errors.Wrapf(err, "querying daily goal for %s", date)
	}

	return g, nil
}

// UserSettings is the singleton settings record. DefaultGoal, SleepGoal,
// TrackSleep, TrackTraining and DietaryPreferences sync across devices.
// APIKey and Theme are device-local: they never leave this device and
// are never overwritten by a pulled record.
type UserSettings struct {
	SyncMeta
	DefaultGoal        int64  `json:"default_goal"`
	SleepGoal          int64  `json:"sleep_goal"`
	TrackSleep         bool   `json:"track_sleep"`
	TrackTraining      bool   `json:"track_training"`
	DietaryPreferences string `json:"dietary_preferences"`
	APIKey             string `json:"-"`
	Theme              string `json:"-"`
}

const userSettingsCols = "id, uuid, sync_id, updated_at, deleted_at, pushed_at, default_goal, sleep_goal, track_sleep, track_training, dietary_preferences, api_key, theme"

// GetUserSettings retrieves the singleton settings row
func GetUserSettings(db *DB) (UserSettings, error) {
	var s UserSettings
	err := db.QueryRow("SELECT " + userSettingsCols + " FROM user_settings ORDER BY id LIMIT 1").
		Scan(&s.RowID, &s.UUID, &s.SyncID, &s.UpdatedAt, &s.DeletedAt, &s.PushedAt,
			&s.DefaultGoal, &s.SleepGoal, &s.TrackSleep, &s.TrackTraining, &s.DietaryPreferences, &s.APIKey, &s.Theme)
	if err == sql.ErrNoRows {
		return s, err
	} else if err != nil {
		return s, errors.Wrap(err, "querying user settings")
	}

	return s, nil
}

// Insert inserts the settings row
func (s *UserSettings) Insert(db *DB) error {
	res, err := db.Exec(`INSERT INTO user_settings
		(uuid, sync_id, updated_at, deleted_at, pushed_at, default_goal, sleep_goal, track_sleep, track_training, dietary_preferences, api_key, theme)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UUID, s.SyncID, s.UpdatedAt, s.DeletedAt, s.PushedAt,
		s.DefaultGoal, s.SleepGoal, s.TrackSleep, s.TrackTraining, s.DietaryPreferences, s.APIKey, s.Theme)
	if err != nil {
		return errors.Wrap(err, "inserting user settings")
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "getting rowid of user settings")
	}
	s.RowID = rowID

	return nil
}

// Update updates the settings row with the given data
func (s UserSettings) Update(db *DB) error {
	_, err := db.Exec(`UPDATE user_settings SET
		sync_id = ?, updated_at = ?, deleted_at = ?, pushed_at = ?, default_goal = ?, sleep_goal = ?, track_sleep = ?, track_training = ?, dietary_preferences = ?, api_key = ?, theme = ?
		WHERE id = ?`,
		s.SyncID, s.UpdatedAt, s.DeletedAt, s.PushedAt,
		s.DefaultGoal, s.SleepGoal, s.TrackSleep, s.TrackTraining, s.DietaryPreferences, s.APIKey, s.Theme, s.RowID)
	if err != nil {
		return errors.Wrap(err, "updating user settings")
	}

	return nil
}
