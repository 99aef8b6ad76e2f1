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
	"fmt"

	"github.com/pkg/errors"
)

// The functions in this file operate on the sync columns shared by all
// record tables. The table name always comes from consts.Collections,
// never from user input.

// GetSyncMeta reads the sync columns of a record by its local id
func GetSyncMeta(db *DB, table string, rowID int64) (SyncMeta, error) {
	var ret SyncMeta
	q := fmt.Sprintf("SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at FROM %s WHERE id = ?", table)
	err := db.QueryRow(q, rowID).Scan(&ret.RowID, &ret.UUID, &ret.SyncID, &ret.UpdatedAt, &ret.DeletedAt, &ret.PushedAt)
	if err != nil {
		return ret, errors.Wrapf(err, "getting sync columns of %s record %d", table, rowID)
	}

	return ret, nil
}

// SoftDelete turns the record into a tombstone. The row is kept so that
// the deletion can propagate to other devices; it only disappears from
// active-record queries.
func SoftDelete(db *DB, table string, rowID int64, updatedAt int64) error {
	q := fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ? WHERE id = ?", table)
	if _, err := db.Exec(q, updatedAt, updatedAt, rowID); err != nil {
		return errors.Wrapf(err, "soft-deleting %s record %d", table, rowID)
	}

	return nil
}

// ConfirmPush stores the server-assigned sync id and marks the record as
// pushed up to the given watermark. Called only after a confirmed
// successful write to the server.
func ConfirmPush(db *DB, table string, rowID int64, syncID string, pushedAt int64) error {
	q := fmt.Sprintf("UPDATE %s SET sync_id = ?, pushed_at = ? WHERE id = ?", table)
	if _, err := db.Exec(q, syncID, pushedAt, rowID); err != nil {
		return errors.Wrapf(err, "confirming push of %s record %d", table, rowID)
	}

	return nil
}

// SetWatermark records the newest server version this device has observed
// for the record without touching its local edits. Used when a pull
// merge keeps the local version so that the next push carries the right
// base timestamp.
func SetWatermark(db *DB, table string, rowID int64, pushedAt int64) error {
	q := fmt.Sprintf("UPDATE %s SET pushed_at = ? WHERE id = ? AND pushed_at < ?", table)
	if _, err := db.Exec(q, pushedAt, rowID, pushedAt); err != nil {
		return errors.Wrapf(err, "setting watermark of %s record %d", table, rowID)
	}

	return nil
}

// AdvancePastRemote keeps the record's local field values but moves its
// updated_at strictly past the remote version it just tied with, and
// records that version as the observed watermark. The record stays
// dirty and its next push carries a base the server will accept.
func AdvancePastRemote(db *DB, table string, rowID int64, remoteUpdatedAt int64) error {
	q := fmt.Sprintf("UPDATE %s SET updated_at = ?, pushed_at = ? WHERE id = ? AND updated_at <= ?", table)
	if _, err := db.Exec(q, remoteUpdatedAt+1, remoteUpdatedAt, rowID, remoteUpdatedAt); err != nil {
		return errors.Wrapf(err, "advancing %s record %d past remote", table, rowID)
	}

	return nil
}

// CountDirty returns the number of records in the table that need push
func CountDirty(db *DB, table string) (int, error) {
	var ret int
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE sync_id = '' OR updated_at > pushed_at", table)
	if err := db.QueryRow(q).Scan(&ret); err != nil {
		return 0, errors.Wrapf(err, "counting dirty records in %s", table)
	}

	return ret, nil
}

// PurgeTable hard-deletes every row of the table. This is only ever part
// of a full local wipe; sync never purges rows on its own.
func PurgeTable(db *DB, table string) error {
	q := fmt.Sprintf("DELETE FROM %s", table)
	if _, err := db.Exec(q); err != nil {
		return errors.Wrapf(err, "purging %s", table)
	}

	return nil
}
