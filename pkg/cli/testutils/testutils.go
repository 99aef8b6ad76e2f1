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

// Package testutils provides utilities used in tests
package testutils

import (
	"testing"
	"time"

	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/clock"
)

// TestSessionKey is the session key the fake remote accepts
const TestSessionKey = "test-session-key"

// InitCtx sets up a test context with an in-memory database and a mock
// clock starting at the given time.
func InitCtx(t *testing.T, now time.Time) context.VitalogCtx {
	t.Helper()

	db := database.InitTestMemoryDB(t)

	clk := clock.NewMock()
	clk.SetNow(now)

	return context.VitalogCtx{
		APIEndpoint:      "",
		Version:          "test",
		DB:               db,
		SessionKey:       TestSessionKey,
		SessionKeyExpiry: now.Add(24 * time.Hour).Unix(),
		DeviceID:         "test-device",
		Clock:            clk,
	}
}

// WithRemote points the context at a fake remote.
func WithRemote(ctx context.VitalogCtx, remote *FakeRemote) context.VitalogCtx {
	ctx.APIEndpoint = remote.URL()
	return ctx
}

// MustMock returns the context clock as a mock clock.
func MustMock(t *testing.T, ctx context.VitalogCtx) *clock.Mock {
	t.Helper()

	m, ok := ctx.Clock.(*clock.Mock)
	if !ok {
		t.Fatal("context clock is not a mock")
	}

	return m
}
