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

// Package syncer implements the local-first synchronization engine: it
// reconciles the local datastore with the sync backend per collection,
// pulling remote changes behind a durable cursor and pushing dirty
// records, with whole-record last-write-wins conflict resolution and
// tombstoned deletes.
package syncer

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

// ErrMalformed marks a pulled record whose payload could not be decoded.
// The pull engine skips such records and applies the rest of the page.
var ErrMalformed = errors.New("malformed record payload")

// Outbound is one dirty local record prepared for upload. Payload holds
// the synced fields only; device-local fields are filtered out when the
// payload is built, before anything reaches the transport.
type Outbound struct {
	RowID     int64
	UUID      string
	SyncID    string
	UpdatedAt int64
	DeletedAt int64
	PushedAt  int64
	Payload   json.RawMessage
}

// Handler binds the engine to one record collection. Implementations
// own the collection-specific SQL and payload codec; the engines drive
// them uniformly.
type Handler interface {
	// Collection returns the collection name, which is also the local
	// table name
	Collection() string
	// ApplyRemote merges one pulled record into the local store. It must
	// be idempotent for a given (sync_id, updated_at) pair. Payload
	// decode failures are reported wrapping ErrMalformed.
	ApplyRemote(tx *database.DB, rec client.RemoteRecord) error
	// DirtyRecords returns the local records that need push, oldest
	// update first
	DirtyRecords(db *database.DB) ([]Outbound, error)
}

// DefaultHandlers returns the handlers of all synced collections in sync
// order
func DefaultHandlers() []Handler {
	return []Handler{
		foodHandler{},
		sleepHandler{},
		trainingHandler{},
		goalHandler{},
		settingsHandler{},
	}
}

// applyVersioned runs the conflict decision for a record that exists on
// both sides and reports the outcome. TakeRemote is left for the caller
// to execute since overwriting is collection-specific; the other two
// outcomes are executed here because they only touch the shared sync
// columns.
func applyVersioned(tx *database.DB, table string, local database.SyncMeta, rec client.RemoteRecord) (Outcome, error) {
	outcome := Resolve(
		Version{UpdatedAt: local.UpdatedAt, Deleted: local.Deleted(), Dirty: local.Dirty()},
		Version{UpdatedAt: rec.UpdatedAt, Deleted: rec.Tombstone()},
	)

	switch outcome {
	case KeepLocal:
		if err := database.SetWatermark(tx, table, local.RowID, rec.UpdatedAt); err != nil {
			return outcome, errors.Wrap(err, "recording observed remote version")
		}
	case KeepLocalAdvance:
		if err := database.AdvancePastRemote(tx, table, local.RowID, rec.UpdatedAt); err != nil {
			return outcome, errors.Wrap(err, "advancing local record past remote")
		}
	}

	return outcome, nil
}
