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
	"testing"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/testutils"
)

func TestDelete(t *testing.T) {
	ctx := newTestCtx(t, nil)

	e := insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: "s1", UpdatedAt: 100, PushedAt: 100,
	}, "oatmeal")

	if err := Delete(ctx.DB, ctx.Clock, consts.CollectionFoodEntries, e.SyncMeta); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	got := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, got.Deleted(), true, "record should be tombstoned")
	assert.Equal(t, got.Dirty(), true, "tombstone should be pending push")
	assert.Equal(t, got.DeletedAt, got.UpdatedAt, "deleted_at should equal updated_at")
	if got.UpdatedAt <= 100 {
		t.Errorf("updated_at did not advance: %d", got.UpdatedAt)
	}
	assert.Equal(t, got.FoodName, "oatmeal", "tombstone should keep its fields")
}

func TestDelete_alreadyDeleted(t *testing.T) {
	ctx := newTestCtx(t, nil)

	e := insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: "s1", UpdatedAt: 100, DeletedAt: 100, PushedAt: 100,
	}, "oatmeal")

	if err := Delete(ctx.DB, ctx.Clock, consts.CollectionFoodEntries, e.SyncMeta); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	// deleting a tombstone is a no-op and must not mark it dirty again
	got := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, got.UpdatedAt, int64(100), "updated_at should not change")
	assert.Equal(t, got.Dirty(), false, "tombstone should not become dirty")
}

func TestDelete_neverPushed(t *testing.T) {
	// a record another device may have already pulled must still become
	// a tombstone rather than a plain row removal
	ctx := newTestCtx(t, nil)

	e := insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", UpdatedAt: 100}, "oatmeal")

	if err := Delete(ctx.DB, ctx.Clock, consts.CollectionFoodEntries, e.SyncMeta); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	assert.Equal(t, countRows(t, ctx.DB, "food_entries"), 1, "row should remain as a tombstone")

	got := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, got.Deleted(), true, "record should be tombstoned")
	assert.Equal(t, got.SyncID, "", "never-pushed record keeps no sync id")
	assert.Equal(t, got.Dirty(), true, "tombstone should be pending push")
}

func TestTombstonePropagation(t *testing.T) {
	// device A deletes a synced record; device B picks up the tombstone
	remote := testutils.NewFakeRemote(t)
	ctxA := newTestCtx(t, remote)
	ctxB := newTestCtx(t, remote)

	rec := seedRemoteFood(t, remote, "u1", 100, "oatmeal")

	if _, err := PullCollection(stdctx.Background(), ctxA, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "device A pulling"))
	}
	if _, err := PullCollection(stdctx.Background(), ctxB, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "device B pulling"))
	}

	e := getFoodByUUID(t, ctxA.DB, "u1")
	if err := Delete(ctxA.DB, ctxA.Clock, consts.CollectionFoodEntries, e.SyncMeta); err != nil {
		t.Fatal(errors.Wrap(err, "device A deleting"))
	}
	if _, _, err := PushCollection(stdctx.Background(), ctxA, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "device A pushing"))
	}

	if _, err := PullCollection(stdctx.Background(), ctxB, foodHandler{}); err != nil {
		t.Fatal(errors.Wrap(err, "device B pulling tombstone"))
	}

	got := getFoodByUUID(t, ctxB.DB, "u1")
	assert.Equal(t, got.Deleted(), true, "tombstone did not reach device B")
	assert.Equal(t, got.SyncID, rec.SyncID, "sync id mismatch")
	assert.Equal(t, got.Dirty(), false, "pulled tombstone should be clean")
}

func TestWipe(t *testing.T) {
	ctx := newTestCtx(t, nil)

	insertLocalFood(t, ctx.DB, database.SyncMeta{UUID: "u1", SyncID: "s1", UpdatedAt: 100, PushedAt: 100}, "oatmeal")
	if err := database.UpdateCursor(ctx.DB, consts.CollectionFoodEntries, 100); err != nil {
		t.Fatal(errors.Wrap(err, "setting cursor"))
	}
	if err := database.UpsertSystem(ctx.DB, consts.SystemLastSyncTime, "12345"); err != nil {
		t.Fatal(errors.Wrap(err, "setting last sync time"))
	}
	if err := database.UpsertSystem(ctx.DB, consts.SystemDeviceID, "device-1"); err != nil {
		t.Fatal(errors.Wrap(err, "setting device id"))
	}

	if err := Wipe(ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "wiping"))
	}

	assert.Equal(t, countRows(t, ctx.DB, "food_entries"), 0, "records should be gone")
	assert.Equal(t, getCursor(t, ctx.DB, consts.CollectionFoodEntries), int64(0), "cursor should be reset")

	var lastSync string
	if err := database.GetSystem(ctx.DB, consts.SystemLastSyncTime, &lastSync); err == nil {
		t.Error("last sync time should have been cleared")
	}

	// identity survives a wipe
	var deviceID string
	if err := database.GetSystem(ctx.DB, consts.SystemDeviceID, &deviceID); err != nil {
		t.Fatal(errors.Wrap(err, "getting device id"))
	}
	assert.Equal(t, deviceID, "device-1", "device id should survive a wipe")
}
