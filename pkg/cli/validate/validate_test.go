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

package validate

import (
	"testing"

	"github.com/vitalog/vitalog/pkg/assert"
)

func TestDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected error
	}{
		{"2024-07-03", nil},
		{"2024-12-31", nil},
		{"2024-13-01", ErrDateInvalid},
		{"2024-7-3", ErrDateInvalid},
		{"07/03/2024", ErrDateInvalid},
		{"yesterday", ErrDateInvalid},
		{"", ErrDateInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, Date(tc.input), tc.expected, "result mismatch")
		})
	}
}

func TestSource(t *testing.T) {
	for _, source := range []string{"text", "photo", "manual", "label"} {
		assert.Equal(t, Source(source), nil, "valid source rejected")
	}

	assert.Equal(t, Source("guess"), ErrSourceInvalid, "invalid source accepted")
	assert.Equal(t, Source(""), ErrSourceInvalid, "empty source accepted")
}

func TestConfidence(t *testing.T) {
	for _, confidence := range []string{"high", "medium", "low"} {
		assert.Equal(t, Confidence(confidence), nil, "valid confidence rejected")
	}

	assert.Equal(t, Confidence("certain"), ErrConfidenceInvalid, "invalid confidence accepted")
}

func TestQuality(t *testing.T) {
	for q := int64(1); q <= 5; q++ {
		assert.Equal(t, Quality(q), nil, "valid quality rejected")
	}

	assert.Equal(t, Quality(0), ErrQualityInvalid, "zero quality accepted")
	assert.Equal(t, Quality(6), ErrQualityInvalid, "out-of-range quality accepted")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, Duration(440), nil, "valid duration rejected")
	assert.Equal(t, Duration(0), ErrDurationInvalid, "zero duration accepted")
	assert.Equal(t, Duration(-10), ErrDurationInvalid, "negative duration accepted")
}

func TestGoal(t *testing.T) {
	assert.Equal(t, Goal(120), nil, "valid goal rejected")
	assert.Equal(t, Goal(0), ErrGoalInvalid, "zero goal accepted")
	assert.Equal(t, Goal(-5), ErrGoalInvalid, "negative goal accepted")
}
