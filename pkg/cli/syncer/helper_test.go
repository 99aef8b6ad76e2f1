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
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/testutils"
)

var testBaseTime = time.Unix(1720000000, 0)

func newTestCtx(t *testing.T, remote *testutils.FakeRemote) context.VitalogCtx {
	t.Helper()

	ctx := testutils.InitCtx(t, testBaseTime)
	if remote != nil {
		ctx = testutils.WithRemote(ctx, remote)
	}

	return ctx
}

func foodPayload(t *testing.T, name string, protein float64) json.RawMessage {
	t.Helper()

	b, err := json.Marshal(client.FoodEntryPayload{
		Date:       "2024-07-03",
		Source:     "manual",
		FoodName:   name,
		Protein:    protein,
		Confidence: "high",
		CreatedAt:  testBaseTime.Unix(),
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshaling food payload"))
	}

	return b
}

func seedRemoteFood(t *testing.T, remote *testutils.FakeRemote, uuid string, updatedAt int64, name string) client.RemoteRecord {
	t.Helper()

	return remote.Seed(consts.CollectionFoodEntries, client.RemoteRecord{
		UUID:      uuid,
		UpdatedAt: updatedAt,
		Payload:   foodPayload(t, name, 20),
	})
}

func insertLocalFood(t *testing.T, db *database.DB, meta database.SyncMeta, name string) database.FoodEntry {
	t.Helper()

	e := database.FoodEntry{
		SyncMeta:   meta,
		Date:       "2024-07-03",
		Source:     "manual",
		FoodName:   name,
		Protein:    20,
		Confidence: "high",
		CreatedAt:  testBaseTime.Unix(),
	}
	if err := e.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting food entry"))
	}

	return e
}

func getFoodByUUID(t *testing.T, db *database.DB, uuid string) database.FoodEntry {
	t.Helper()

	var e database.FoodEntry
	row := db.QueryRow(`SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at, food_name, protein
		FROM food_entries WHERE uuid = ?`, uuid)
	database.MustScan(t, "getting food entry", row,
		&e.RowID, &e.UUID, &e.SyncID, &e.UpdatedAt, &e.DeletedAt, &e.PushedAt, &e.FoodName, &e.Protein)

	return e
}

func countRows(t *testing.T, db *database.DB, table string) int {
	t.Helper()

	var count int
	database.MustScan(t, "counting rows", db.QueryRow("SELECT count(*) FROM "+table), &count)

	return count
}

func getCursor(t *testing.T, db *database.DB, collection string) int64 {
	t.Helper()

	cursor, err := database.GetCursor(db, collection)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting cursor"))
	}

	return cursor
}
