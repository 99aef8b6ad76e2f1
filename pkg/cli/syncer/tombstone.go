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
	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/clock"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

// Delete turns a record into a tombstone. The row keeps its identity
// and sync columns so the deletion propagates to other devices like any
// other change. Tombstones are retained indefinitely; a record that was
// never pushed still becomes a tombstone and is pushed as one, because
// another device may have pulled it between our create and our delete.
func Delete(db *database.DB, clk clock.Clock, table string, meta database.SyncMeta) error {
	if meta.Deleted() {
		return nil
	}

	ts := database.Timestamp(clk, meta.UpdatedAt)
	if err := database.SoftDelete(db, table, meta.RowID, ts); err != nil {
		return errors.Wrapf(err, "deleting %s record %d", table, meta.RowID)
	}

	return nil
}

// Wipe drops all local records, cursors and sync status. The session
// and device identity are kept; the next sync is a full resync.
func Wipe(db *database.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	for _, collection := range consts.Collections {
		if err := database.PurgeTable(tx, collection); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "purging %s", collection)
		}
	}

	if err := database.ResetCursors(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "resetting cursors")
	}

	for _, key := range []string{consts.SystemLastSyncTime, consts.SystemLastSyncError} {
		if err := database.DeleteSystem(tx, key); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "clearing %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}
