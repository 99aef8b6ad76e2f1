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
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

// Dirtiness is derived from the sync columns rather than tracked in a
// separate queue. A record is dirty if it has never been pushed or if it
// was modified after the last push. Reads therefore always agree with
// the row state, including after a crash.

// CountDirty returns the number of unpushed records in a collection.
func CountDirty(db *database.DB, collection string) (int, error) {
	count, err := database.CountDirty(db, collection)
	if err != nil {
		return 0, errors.Wrapf(err, "counting dirty records in %s", collection)
	}

	return count, nil
}

// CountDirtyAll returns per-collection dirty counts and the total.
func CountDirtyAll(db *database.DB) (map[string]int, int, error) {
	counts := map[string]int{}
	total := 0

	for _, collection := range consts.Collections {
		count, err := CountDirty(db, collection)
		if err != nil {
			return nil, 0, err
		}

		counts[collection] = count
		total += count
	}

	return counts, total, nil
}

// HasDirty returns true if any collection has unpushed records.
func HasDirty(db *database.DB) (bool, error) {
	for _, collection := range consts.Collections {
		count, err := CountDirty(db, collection)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}

	return false, nil
}
