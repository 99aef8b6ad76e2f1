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
	stdctx "context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/testutils"
)

func TestPushCollection_create(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")

	pushed, needsRepull, err := PushCollection(stdctx.Background(), ctx, foodHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, pushed, 1, "pushed count mismatch")
	assert.Equal(t, needsRepull, false, "no conflict expected")
	assert.Equal(t, remote.CreateCalls, 1, "create call count mismatch")

	e := getFoodByUUID(t, ctx.DB, "u1")
	if e.SyncID == "" {
		t.Fatal("record was not assigned a sync id")
	}
	assert.Equal(t, e.Dirty(), false, "record should be clean after push")
	assert.Equal(t, e.PushedAt, int64(100), "pushed_at mismatch")

	rec, ok := remote.Find(consts.CollectionFoodEntries, e.SyncID)
	if !ok {
		t.Fatal("record not found on the remote")
	}
	assert.Equal(t, rec.UUID, "u1", "remote uuid mismatch")
	assert.Equal(t, rec.UpdatedAt, int64(100), "remote updated_at mismatch")

	var payload client.FoodEntryPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatal(errors.Wrap(err, "decoding pushed payload"))
	}
	assert.Equal(t, payload.FoodName, "oatmeal", "pushed payload mismatch")
}

func TestPushCollection_update(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	rec := seedRemoteFood(t, remote, "u1", 100, "oatmeal")
	insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: rec.SyncID, UpdatedAt: 120, PushedAt: 100,
	}, "oatmeal with berries")

	pushed, needsRepull, err := PushCollection(stdctx.Background(), ctx, foodHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, pushed, 1, "pushed count mismatch")
	assert.Equal(t, needsRepull, false, "no conflict expected")
	assert.Equal(t, remote.UpdateCalls, 1, "update call count mismatch")
	assert.Equal(t, remote.CreateCalls, 0, "no create expected")

	got, _ := remote.Find(consts.CollectionFoodEntries, rec.SyncID)
	assert.Equal(t, got.UpdatedAt, int64(120), "remote updated_at mismatch")

	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.Dirty(), false, "record should be clean after push")
	assert.Equal(t, e.PushedAt, int64(120), "pushed_at mismatch")
}

func TestPushCollection_conflictDefersToRepull(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	// the server has moved past the version this device last observed
	rec := remote.Seed(consts.CollectionFoodEntries, client.RemoteRecord{
		UUID: "u1", UpdatedAt: 150, Payload: foodPayload(t, "oatmeal deluxe", 25),
	})
	insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: rec.SyncID, UpdatedAt: 120, PushedAt: 100,
	}, "oatmeal with berries")

	pushed, needsRepull, err := PushCollection(stdctx.Background(), ctx, foodHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, pushed, 0, "conflicted record should not count as pushed")
	assert.Equal(t, needsRepull, true, "conflict should request a repull")

	// the local edit is untouched and still dirty
	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.FoodName, "oatmeal with berries", "local record should be untouched")
	assert.Equal(t, e.Dirty(), true, "record should remain dirty")

	// the server copy was not clobbered
	got, _ := remote.Find(consts.CollectionFoodEntries, rec.SyncID)
	assert.Equal(t, got.UpdatedAt, int64(150), "remote record should be untouched")
}

func TestPushCollection_validationSkips(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")
	remote.FailStatus = 422

	pushed, needsRepull, err := PushCollection(stdctx.Background(), ctx, foodHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, pushed, 0, "rejected record should not count as pushed")
	assert.Equal(t, needsRepull, false, "validation failure is not a conflict")

	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.Dirty(), true, "rejected record should remain dirty")
}

func TestPushCollection_transportErrorAborts(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")
	remote.FailStatus = 500

	if _, _, err := PushCollection(stdctx.Background(), ctx, foodHandler{}); err == nil {
		t.Fatal("push should have failed")
	}

	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.Dirty(), true, "record should remain dirty after a failed push")
}

func TestPushCollection_retransmitAfterCrash(t *testing.T) {
	// the first create reached the server but the confirmation was
	// lost. The retransmitted create with the same uuid must not create
	// a duplicate.
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")

	if _, _, err := PushCollection(stdctx.Background(), ctx, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "first push"))
	}

	// simulate the lost confirmation by reverting the local sync columns
	database.MustExec(t, "reverting sync columns", ctx.DB,
		"UPDATE food_entries SET sync_id = '', pushed_at = 0 WHERE uuid = ?", "u1")

	if _, _, err := PushCollection(stdctx.Background(), ctx, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "second push"))
	}

	assert.Equal(t, len(remote.Records(consts.CollectionFoodEntries)), 1, "retransmit created a duplicate")

	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.Dirty(), false, "record should be clean after retransmit")
}

func TestPushCollection_tombstone(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	rec := seedRemoteFood(t, remote, "u1", 100, "oatmeal")
	e := insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: rec.SyncID, UpdatedAt: 100, PushedAt: 100,
	}, "oatmeal")

	if err := Delete(ctx.DB, ctx.Clock, consts.CollectionFoodEntries, e.SyncMeta); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	pushed, _, err := PushCollection(stdctx.Background(), ctx, foodHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}
	assert.Equal(t, pushed, 1, "pushed count mismatch")

	got, _ := remote.Find(consts.CollectionFoodEntries, rec.SyncID)
	if got.DeletedAt == 0 {
		t.Error("tombstone did not propagate to the remote")
	}
}

func TestPush_ordersCollections(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")

	s := database.SleepEntry{
		SyncMeta:        database.SyncMeta{UUID: "u2", UpdatedAt: 100},
		Date:            "2024-07-03",
		DurationMinutes: 440,
		Quality:         4,
	}
	if err := s.Insert(ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting sleep entry"))
	}

	total, repull, err := Push(stdctx.Background(), ctx, DefaultHandlers())
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, total, 2, "pushed count mismatch")
	assert.Equal(t, len(repull), 0, "no conflicts expected")
	assert.Equal(t, len(remote.Records(consts.CollectionFoodEntries)), 1, "food record missing on remote")
	assert.Equal(t, len(remote.Records(consts.CollectionSleepEntries)), 1, "sleep record missing on remote")
}

func TestPushCollection_settingsOmitDeviceLocal(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	s := database.UserSettings{
		SyncMeta:           database.SyncMeta{UUID: "su", UpdatedAt: 100},
		DefaultGoal:        140,
		SleepGoal:          480,
		TrackSleep:         true,
		DietaryPreferences: `["vegetarian"]`,
		APIKey:             "local-credential",
		Theme:              "dark",
	}
	if err := s.Insert(ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting settings"))
	}

	pushed, _, err := PushCollection(stdctx.Background(), ctx, settingsHandler{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}
	assert.Equal(t, pushed, 1, "pushed count mismatch")

	records := remote.Records(consts.CollectionUserSettings)
	assert.Equal(t, len(records), 1, "remote record count mismatch")

	var fields map[string]interface{}
	if err := json.Unmarshal(records[0].Payload, &fields); err != nil {
		t.Fatal(errors.Wrap(err, "unmarshaling payload"))
	}

	if _, ok := fields["api_key"]; ok {
		t.Error("api key leaked into the push payload")
	}
	if _, ok := fields["theme"]; ok {
		t.Error("theme leaked into the push payload")
	}
	assert.Equal(t, fields["default_goal"], float64(140), "default goal missing from payload")
	if _, ok := fields["dietary_preferences"]; !ok {
		t.Error("dietary preferences missing from payload")
	}
}
