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
	"time"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/testutils"
)

func TestRunCycle_convergesTwoDevices(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctxA := newTestCtx(t, remote)
	ctxB := newTestCtx(t, remote)

	// device B's clock runs ahead of device A's
	testutils.MustMock(t, ctxB).Advance(time.Hour)

	orchA := NewOrchestrator(ctxA, DefaultHandlers())
	orchB := NewOrchestrator(ctxB, DefaultHandlers())

	// A records a meal and syncs
	insertLocalFood(t, ctxA.DB, database.SyncMeta{
		UUID: "u1", UpdatedAt: ctxA.Clock.Now().Unix(),
	}, "oatmeal")

	stats, err := orchA.RunCycle(stdctx.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "device A syncing"))
	}
	assert.Equal(t, stats.Pushed, 1, "device A pushed count mismatch")

	// B syncs and sees the meal
	stats, err = orchB.RunCycle(stdctx.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "device B syncing"))
	}
	assert.Equal(t, stats.Pulled, 1, "device B pulled count mismatch")

	eB := getFoodByUUID(t, ctxB.DB, "u1")
	assert.Equal(t, eB.FoodName, "oatmeal", "device B record mismatch")

	// B edits the meal and syncs
	ts := database.Timestamp(ctxB.Clock, eB.UpdatedAt)
	database.MustExec(t, "editing on device B", ctxB.DB,
		"UPDATE food_entries SET food_name = ?, updated_at = ? WHERE uuid = ?",
		"overnight oats", ts, "u1")

	if _, err := orchB.RunCycle(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "device B syncing edit"))
	}

	// A syncs and converges on B's edit
	if _, err := orchA.RunCycle(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "device A syncing again"))
	}

	eA := getFoodByUUID(t, ctxA.DB, "u1")
	assert.Equal(t, eA.FoodName, "overnight oats", "device A did not converge on the edit")
	assert.Equal(t, eA.Dirty(), false, "device A record should be clean")
}

// hookHandler fires a callback when the push engine first asks for
// dirty records, simulating a server-side change in the window between
// the pull and the push of one cycle.
type hookHandler struct {
	Handler
	onDirty func()
	fired   bool
}

func (h *hookHandler) DirtyRecords(db *database.DB) ([]Outbound, error) {
	if !h.fired {
		h.fired = true
		h.onDirty()
	}

	return h.Handler.DirtyRecords(db)
}

func TestRunCycle_conflictRepull(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)

	// starting point: one record synced at version 100
	rec := seedRemoteFood(t, remote, "u1", 100, "oatmeal")
	insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: rec.SyncID, UpdatedAt: 100, PushedAt: 100,
	}, "oatmeal")
	if err := database.UpdateCursor(ctx.DB, consts.CollectionFoodEntries, 100); err != nil {
		t.Fatal(errors.Wrap(err, "setting cursor"))
	}

	// local edit at version 120
	database.MustExec(t, "editing locally", ctx.DB,
		"UPDATE food_entries SET food_name = ?, updated_at = ? WHERE uuid = ?",
		"oatmeal with honey", 120, "u1")

	// between the pull and the push, another device moves the server to
	// version 150
	h := &hookHandler{Handler: foodHandler{}, onDirty: func() {
		remote.Overwrite(consts.CollectionFoodEntries, client.RemoteRecord{
			SyncID: rec.SyncID, UUID: "u1", UpdatedAt: 150,
			Payload: foodPayload(t, "steel-cut oatmeal", 22),
		})
	}}

	orch := NewOrchestrator(ctx, []Handler{h})

	stats, err := orch.RunCycle(stdctx.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "syncing"))
	}

	// the push hit a conflict; the repull round resolved it in favor of
	// the newer server version
	assert.Equal(t, stats.Pulled, 1, "repull should have applied the newer version")

	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.FoodName, "steel-cut oatmeal", "record did not converge on the newer server version")
	assert.Equal(t, e.UpdatedAt, int64(150), "updated_at mismatch")
	assert.Equal(t, e.Dirty(), false, "record should be clean after convergence")
}

func TestTrigger_coalesces(t *testing.T) {
	ctx := newTestCtx(t, nil)
	orch := NewOrchestrator(ctx, DefaultHandlers())

	for i := 0; i < 5; i++ {
		orch.Trigger()
	}

	assert.Equal(t, len(orch.trigger), 1, "triggers should collapse into one pending cycle")
}

func TestRunCycle_recordsOutcome(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)
	orch := NewOrchestrator(ctx, DefaultHandlers())

	// a failing cycle records the error
	remote.FailStatus = 500
	if _, err := orch.RunCycle(stdctx.Background()); err == nil {
		t.Fatal("cycle should have failed")
	}

	status, err := orch.ReadStatus()
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading status"))
	}
	if status.LastSyncError == "" {
		t.Error("failed cycle should record an error")
	}
	assert.Equal(t, status.LastSyncTime, int64(0), "failed cycle should not record a sync time")

	// a successful cycle records the time and clears the error
	remote.FailStatus = 0
	if _, err := orch.RunCycle(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "syncing"))
	}

	status, err = orch.ReadStatus()
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading status again"))
	}
	assert.Equal(t, status.LastSyncError, "", "successful cycle should clear the error")
	assert.Equal(t, status.LastSyncTime, ctx.Clock.Now().Unix(), "last sync time mismatch")
}

func TestFullResync(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)
	orch := NewOrchestrator(ctx, DefaultHandlers())

	seedRemoteFood(t, remote, "u1", 100, "oatmeal")
	seedRemoteFood(t, remote, "u2", 110, "eggs")

	if _, err := orch.RunCycle(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "initial sync"))
	}

	// local store diverges from the server: a row goes missing
	database.MustExec(t, "corrupting local store", ctx.DB,
		"DELETE FROM food_entries WHERE uuid = ?", "u1")

	// a normal cycle cannot see it: the cursor already covers it
	if _, err := orch.RunCycle(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "normal cycle"))
	}
	assert.Equal(t, countRows(t, ctx.DB, "food_entries"), 1, "normal cycle should not refetch covered data")

	// a full resync refetches everything without duplicating what is
	// still there
	stats, err := orch.FullResync(stdctx.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "full resync"))
	}

	assert.Equal(t, stats.Pulled, 2, "full resync should reapply all records")
	assert.Equal(t, countRows(t, ctx.DB, "food_entries"), 2, "missing row should be restored")
}

func TestFullResync_keepsDirtyEdits(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)
	orch := NewOrchestrator(ctx, DefaultHandlers())

	rec := seedRemoteFood(t, remote, "u1", 100, "oatmeal")
	insertLocalFood(t, ctx.DB, database.SyncMeta{
		UUID: "u1", SyncID: rec.SyncID, UpdatedAt: 120, PushedAt: 100,
	}, "oatmeal with honey")

	if _, err := orch.FullResync(stdctx.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "full resync"))
	}

	// the dirty local edit is newer and must win the merge, then be
	// pushed by the same cycle
	e := getFoodByUUID(t, ctx.DB, "u1")
	assert.Equal(t, e.FoodName, "oatmeal with honey", "dirty local edit should survive a full resync")
	assert.Equal(t, e.Dirty(), false, "edit should have been pushed by the resync cycle")

	got, _ := remote.Find(consts.CollectionFoodEntries, rec.SyncID)
	assert.Equal(t, got.UpdatedAt, int64(120), "edit should have reached the server")
}

func TestRun_stopsOnCancel(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := newTestCtx(t, remote)
	orch := NewOrchestrator(ctx, DefaultHandlers())

	seedRemoteFood(t, remote, "u1", 100, "oatmeal")

	runCtx, cancel := stdctx.WithCancel(stdctx.Background())

	done := make(chan error, 1)
	go func() {
		done <- orch.Run(runCtx, "")
	}()

	orch.Trigger()

	// wait for the triggered cycle to land
	deadline := time.After(5 * time.Second)
	for countRows(t, ctx.DB, "food_entries") == 0 {
		select {
		case <-deadline:
			t.Fatal("triggered cycle never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	select {
	case err := <-done:
		assert.Equal(t, err, stdctx.Canceled, "run should return the cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}
