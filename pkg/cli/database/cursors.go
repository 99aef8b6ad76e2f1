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
)

// GetCursor returns the pull high-water mark for the given collection.
// An absent cursor reads as zero, which makes the next pull a full pull.
func GetCursor(db *DB, collection string) (int64, error) {
	var ret int64
	err := db.QueryRow("SELECT last_synced_at FROM sync_cursors WHERE collection = ?", collection).Scan(&ret)
	if err == sql.ErrNoRows {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "querying cursor for %s", collection)
	}

	return ret, nil
}

// UpdateCursor advances the pull high-water mark for the given collection.
// It must be called in the same transaction as the writes that applied
// the pulled records, so that a crash cannot separate the two.
func UpdateCursor(db *DB, collection string, lastSyncedAt int64) error {
	_, err := db.Exec(`INSERT INTO sync_cursors (collection, last_synced_at) VALUES (?, ?)
		ON CONFLICT(collection) DO UPDATE SET last_synced_at = excluded.last_synced_at`,
		collection, lastSyncedAt)
	if err != nil {
		return errors.Wrapf(err, "updating cursor for %s", collection)
	}

	return nil
}

// ResetCursors clears the pull high-water marks of all collections,
// forcing the next sync cycle to re-derive local state from the server
func ResetCursors(db *DB) error {
	if _, err := db.Exec("DELETE FROM sync_cursors"); err != nil {
		return errors.Wrap(err, "resetting cursors")
	}

	return nil
}
