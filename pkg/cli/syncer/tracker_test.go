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
	"testing"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

func TestCountDirty_lifecycle(t *testing.T) {
	ctx := newTestCtx(t, nil)
	db := ctx.DB

	count, err := CountDirty(db, consts.CollectionFoodEntries)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.Equal(t, count, 0, "empty table should have no dirty records")

	// a new record is dirty until its first push
	e := insertLocalFood(t, db, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")

	count, _ = CountDirty(db, consts.CollectionFoodEntries)
	assert.Equal(t, count, 1, "new record should be dirty")

	// a confirmed push cleans it
	if err := database.ConfirmPush(db, consts.CollectionFoodEntries, e.RowID, "s1", 100); err != nil {
		t.Fatal(errors.Wrap(err, "confirming push"))
	}

	count, _ = CountDirty(db, consts.CollectionFoodEntries)
	assert.Equal(t, count, 0, "pushed record should be clean")

	// an edit makes it dirty again
	database.MustExec(t, "editing", db,
		"UPDATE food_entries SET updated_at = ? WHERE id = ?", 120, e.RowID)

	count, _ = CountDirty(db, consts.CollectionFoodEntries)
	assert.Equal(t, count, 1, "edited record should be dirty")

	// so does a delete
	if err := database.ConfirmPush(db, consts.CollectionFoodEntries, e.RowID, "s1", 120); err != nil {
		t.Fatal(errors.Wrap(err, "confirming second push"))
	}
	if err := Delete(db, ctx.Clock, consts.CollectionFoodEntries, database.SyncMeta{RowID: e.RowID, SyncID: "s1", UpdatedAt: 120, PushedAt: 120}); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	count, _ = CountDirty(db, consts.CollectionFoodEntries)
	assert.Equal(t, count, 1, "tombstone should be dirty until pushed")
}

func TestCountDirtyAll(t *testing.T) {
	ctx := newTestCtx(t, nil)
	db := ctx.DB

	dirty, err := HasDirty(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking dirty"))
	}
	assert.Equal(t, dirty, false, "empty store should not report dirty records")

	insertLocalFood(t, db, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")
	insertLocalFood(t, db, database.SyncMeta{UUID: "u2", UpdatedAt: 110}, "eggs")

	s := database.SleepEntry{
		SyncMeta:        database.SyncMeta{UUID: "u3", UpdatedAt: 100},
		Date:            "2024-07-03",
		DurationMinutes: 440,
		Quality:         4,
	}
	if err := s.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting sleep entry"))
	}

	counts, total, err := CountDirtyAll(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting all"))
	}

	assert.Equal(t, total, 3, "total mismatch")
	assert.Equal(t, counts[consts.CollectionFoodEntries], 2, "food count mismatch")
	assert.Equal(t, counts[consts.CollectionSleepEntries], 1, "sleep count mismatch")
	assert.Equal(t, counts[consts.CollectionDailyGoals], 0, "goal count mismatch")

	dirty, err = HasDirty(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking dirty"))
	}
	assert.Equal(t, dirty, true, "should report dirty records")
}
