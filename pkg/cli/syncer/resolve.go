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

// Version is the conflict-relevant state of one side of a record during
// a pull merge
type Version struct {
	UpdatedAt int64
	Deleted   bool
	// Dirty is set on the local side only, when the record has edits
	// that have not been pushed
	Dirty bool
}

// Outcome is the decision of a pull merge for one record
type Outcome int

const (
	// TakeRemote overwrites the local record with the remote version
	TakeRemote Outcome = iota
	// KeepLocal leaves the local record untouched
	KeepLocal
	// KeepLocalAdvance keeps the local field values but moves the record
	// strictly past the remote version, so that the pending local edit
	// can be pushed against the server state just observed instead of
	// losing the same race again
	KeepLocalAdvance
)

// Resolve decides the winner between the local and the remote version of
// a record. The policy is whole-record last-write-wins by updated_at. On
// an exact timestamp tie the remote wins only when the local record has
// no pending unpushed edits; a device does not silently discard a change
// the user made. A tombstone is never cleared by a pull unless the
// remote version is strictly newer, in which case the undelete is a
// legitimate last-write-wins outcome.
func Resolve(local, remote Version) Outcome {
	if remote.UpdatedAt > local.UpdatedAt {
		return TakeRemote
	}
	if remote.UpdatedAt < local.UpdatedAt {
		return KeepLocal
	}

	// exact tie
	if local.Deleted && !remote.Deleted && !local.Dirty {
		return KeepLocal
	}
	if local.Dirty {
		return KeepLocalAdvance
	}

	return TakeRemote
}
