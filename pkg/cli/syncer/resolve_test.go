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
	"testing"

	"github.com/vitalog/vitalog/pkg/assert"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		local    Version
		remote   Version
		expected Outcome
	}{
		{
			name:     "remote newer wins",
			local:    Version{UpdatedAt: 10},
			remote:   Version{UpdatedAt: 12},
			expected: TakeRemote,
		},
		{
			name:     "remote newer wins over dirty local",
			local:    Version{UpdatedAt: 10, Dirty: true},
			remote:   Version{UpdatedAt: 12},
			expected: TakeRemote,
		},
		{
			name:     "remote newer tombstone wins",
			local:    Version{UpdatedAt: 10, Dirty: true},
			remote:   Version{UpdatedAt: 12, Deleted: true},
			expected: TakeRemote,
		},
		{
			name:     "remote newer undelete wins over local tombstone",
			local:    Version{UpdatedAt: 10, Deleted: true},
			remote:   Version{UpdatedAt: 12},
			expected: TakeRemote,
		},
		{
			name:     "local newer wins",
			local:    Version{UpdatedAt: 12, Dirty: true},
			remote:   Version{UpdatedAt: 10},
			expected: KeepLocal,
		},
		{
			name:     "local newer tombstone wins",
			local:    Version{UpdatedAt: 12, Deleted: true, Dirty: true},
			remote:   Version{UpdatedAt: 10},
			expected: KeepLocal,
		},
		{
			name:     "tie with clean local takes remote",
			local:    Version{UpdatedAt: 10},
			remote:   Version{UpdatedAt: 10},
			expected: TakeRemote,
		},
		{
			name:     "tie with dirty local keeps local and advances",
			local:    Version{UpdatedAt: 10, Dirty: true},
			remote:   Version{UpdatedAt: 10},
			expected: KeepLocalAdvance,
		},
		{
			name:     "tie does not undelete clean local tombstone",
			local:    Version{UpdatedAt: 10, Deleted: true},
			remote:   Version{UpdatedAt: 10},
			expected: KeepLocal,
		},
		{
			name:     "tie with dirty local tombstone keeps tombstone and advances",
			local:    Version{UpdatedAt: 10, Deleted: true, Dirty: true},
			remote:   Version{UpdatedAt: 10},
			expected: KeepLocalAdvance,
		},
		{
			name:     "tie with matching tombstones takes remote",
			local:    Version{UpdatedAt: 10, Deleted: true},
			remote:   Version{UpdatedAt: 10, Deleted: true},
			expected: TakeRemote,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.local, tc.remote)

			assert.Equal(t, got, tc.expected, "outcome mismatch")
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	// the same inputs always resolve the same way regardless of how many
	// times the record is merged
	local := Version{UpdatedAt: 10, Dirty: true}
	remote := Version{UpdatedAt: 10}

	first := Resolve(local, remote)
	for i := 0; i < 10; i++ {
		assert.Equal(t, Resolve(local, remote), first, "outcome changed between runs")
	}
}
