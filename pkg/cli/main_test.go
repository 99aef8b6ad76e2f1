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

package main

import (
	"fmt"
	"testing"

	"github.com/vitalog/vitalog/pkg/assert"
)

func TestParseDBPath(t *testing.T) {
	testCases := []struct {
		args     []string
		expected string
	}{
		{
			args:     []string{},
			expected: "",
		},
		{
			args:     []string{"sync", "--full"},
			expected: "",
		},
		{
			args:     []string{"--dbPath", "/tmp/test.db", "sync"},
			expected: "/tmp/test.db",
		},
		{
			args:     []string{"--dbPath=/tmp/test.db", "sync"},
			expected: "/tmp/test.db",
		},
		{
			args:     []string{"sync", "--full", "--dbPath", "/tmp/test.db"},
			expected: "/tmp/test.db",
		},
		{
			args:     []string{"add", "eggs", "--dbPath=./custom.db"},
			expected: "./custom.db",
		},
		{
			args:     []string{"--dbPath"},
			expected: "",
		},
	}

	for _, tc := range testCases {
		got := parseDBPath(tc.args)
		assert.Equal(t, got, tc.expected, fmt.Sprintf("db path mismatch for %v", tc.args))
	}
}
