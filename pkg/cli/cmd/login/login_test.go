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

package login

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/testutils"
)

func TestGetServerDisplayURL(t *testing.T) {
	testCases := []struct {
		apiEndpoint string
		expected    string
	}{
		{
			apiEndpoint: "https://vitalog.mydomain.com/api",
			expected:    "https://vitalog.mydomain.com",
		},
		{
			apiEndpoint: "https://api.getvitalog.com",
			expected:    "https://api.getvitalog.com",
		},
		{
			apiEndpoint: "some-string",
			expected:    "",
		},
		{
			apiEndpoint: "",
			expected:    "",
		},
		{
			apiEndpoint: "https://",
			expected:    "",
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("for input %s", tc.apiEndpoint), func(t *testing.T) {
			got := getServerDisplayURL(context.VitalogCtx{APIEndpoint: tc.apiEndpoint})
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestDo(t *testing.T) {
	remote := testutils.NewFakeRemote(t)
	ctx := testutils.InitCtx(t, time.Unix(1720000000, 0))
	ctx = testutils.WithRemote(ctx, remote)
	ctx.SessionKey = ""

	if err := Do(ctx, "user@example.com", "correct-horse"); err != nil {
		t.Fatal(errors.Wrap(err, "logging in"))
	}

	var key string
	if err := database.GetSystem(ctx.DB, consts.SystemSessionKey, &key); err != nil {
		t.Fatal(errors.Wrap(err, "getting session key"))
	}
	assert.Equal(t, key, testutils.TestSessionKey, "session key mismatch")

	var expiry int64
	if err := database.GetSystem(ctx.DB, consts.SystemSessionKeyExpiry, &expiry); err != nil {
		t.Fatal(errors.Wrap(err, "getting session key expiry"))
	}
	if expiry == 0 {
		t.Error("session key expiry was not saved")
	}
}
