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

package client

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/context"
)

// RemoteRecord is the wire form of one synced record. Payload holds the
// collection-specific fields; the envelope fields are common to every
// collection. Device-local fields are absent from the payload types by
// construction and are dropped on decode even if a server sends them.
type RemoteRecord struct {
	SyncID    string          `json:"sync_id"`
	UUID      string          `json:"uuid"`
	UpdatedAt int64           `json:"updated_at"`
	DeletedAt int64           `json:"deleted_at,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Tombstone returns true if the record marks a deletion
func (r RemoteRecord) Tombstone() bool {
	return r.DeletedAt != 0
}

// FoodEntryPayload is the synced field set of a food entry
type FoodEntryPayload struct {
	Date       string  `json:"date"`
	Source     string  `json:"source"`
	FoodName   string  `json:"food_name"`
	Protein    float64 `json:"protein"`
	Confidence string  `json:"confidence"`
	ImageData  string  `json:"image_data,omitempty"`
	CreatedAt  int64   `json:"created_at"`
}

// SleepEntryPayload is the synced field set of a sleep entry
type SleepEntryPayload struct {
	Date            string `json:"date"`
	DurationMinutes int64  `json:"duration_minutes"`
	Quality         int64  `json:"quality"`
	CreatedAt       int64  `json:"created_at"`
}

// TrainingEntryPayload is the synced field set of a training entry
type TrainingEntryPayload struct {
	Date            string `json:"date"`
	MuscleGroup     string `json:"muscle_group"`
	DurationMinutes int64  `json:"duration_minutes"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       int64  `json:"created_at"`
}

// DailyGoalPayload is the synced field set of a daily goal
type DailyGoalPayload struct {
	Date string `json:"date"`
	Goal int64  `json:"goal"`
}

// UserSettingsPayload is the synced partition of the settings record.
// The device-local fields (API credential, theme) have no counterpart
// here, which is what keeps them out of every push and pull payload.
type UserSettingsPayload struct {
	DefaultGoal        int64           `json:"default_goal"`
	SleepGoal          int64           `json:"sleep_goal"`
	TrackSleep         bool            `json:"track_sleep"`
	TrackTraining      bool            `json:"track_training"`
	DietaryPreferences json.RawMessage `json:"dietary_preferences"`
}

// ListChangedResp is the response from the list-changed-since endpoint.
// Records are ordered ascending by updated_at.
type ListChangedResp struct {
	Records []RemoteRecord `json:"records"`
}

// ListChangedSince fetches up to pageSize records of the collection whose
// updated_at is strictly greater than since
func ListChangedSince(reqCtx stdctx.Context, ctx context.VitalogCtx, collection string, since int64, pageSize int) (ListChangedResp, error) {
	var ret ListChangedResp

	v := url.Values{}
	v.Set("since", fmt.Sprintf("%d", since))
	v.Set("page_size", fmt.Sprintf("%d", pageSize))
	path := fmt.Sprintf("/v1/sync/%s?%s", collection, v.Encode())

	res, err := doAuthorizedReq(reqCtx, ctx, "GET", path, "")
	if err != nil {
		return ret, errors.Wrap(err, "requesting changed records")
	}

	if err := decodeResp(res, &ret); err != nil {
		return ret, errors.Wrapf(err, "decoding changed records for %s", collection)
	}

	return ret, nil
}

// UpsertRecordReq is the request body for creating or updating a record.
// UUID is set on creates only and lets the server deduplicate a retried
// create. BaseUpdatedAt is set on updates only and carries the newest
// server version this device has observed; the server rejects the write
// with 409 when its current version is newer.
type UpsertRecordReq struct {
	UUID          string          `json:"uuid,omitempty"`
	UpdatedAt     int64           `json:"updated_at"`
	DeletedAt     int64           `json:"deleted_at,omitempty"`
	BaseUpdatedAt int64           `json:"base_updated_at,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// UpsertRecordResp is the response from the create and update endpoints
type UpsertRecordResp struct {
	Record RemoteRecord `json:"record"`
}

// CreateRecord uploads a record that has no sync id yet. The server
// assigns and returns the sync id.
func CreateRecord(reqCtx stdctx.Context, ctx context.VitalogCtx, collection string, body UpsertRecordReq) (UpsertRecordResp, error) {
	var ret UpsertRecordResp

	b, err := json.Marshal(body)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling create payload")
	}

	path := fmt.Sprintf("/v1/sync/%s", collection)
	res, err := doAuthorizedReq(reqCtx, ctx, "POST", path, string(b))
	if err != nil {
		return ret, errors.Wrap(err, "requesting record creation")
	}

	if err := decodeResp(res, &ret); err != nil {
		return ret, errors.Wrapf(err, "decoding created record for %s", collection)
	}

	return ret, nil
}

// UpdateRecord uploads the new state of a record that has a sync id
func UpdateRecord(reqCtx stdctx.Context, ctx context.VitalogCtx, collection, syncID string, body UpsertRecordReq) (UpsertRecordResp, error) {
	var ret UpsertRecordResp

	b, err := json.Marshal(body)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling update payload")
	}

	path := fmt.Sprintf("/v1/sync/%s/%s", collection, syncID)
	res, err := doAuthorizedReq(reqCtx, ctx, "PATCH", path, string(b))
	if err != nil {
		return ret, errors.Wrap(err, "requesting record update")
	}

	if err := decodeResp(res, &ret); err != nil {
		return ret, errors.Wrapf(err, "decoding updated record for %s", collection)
	}

	return ret, nil
}
