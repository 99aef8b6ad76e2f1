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

package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/vitalog/vitalog/pkg/cli/client"
)

// FakeRemote is an in-memory stand-in for the sync backend. It speaks
// the same wire protocol as the real server: list-changed-since with
// paging, create with the uuid as the idempotency key, and update with
// stale-version detection.
type FakeRemote struct {
	server *httptest.Server

	mu          sync.Mutex
	nextSyncID  int
	collections map[string][]client.RemoteRecord

	// ListCalls, CreateCalls and UpdateCalls count requests per kind
	ListCalls   int
	CreateCalls int
	UpdateCalls int

	// FailStatus, when non-zero, makes every request fail with it
	FailStatus int
}

// NewFakeRemote starts a fake remote. The server is shut down when the
// test finishes.
func NewFakeRemote(t *testing.T) *FakeRemote {
	t.Helper()

	f := &FakeRemote{
		collections: map[string][]client.RemoteRecord{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)

	return f
}

// URL returns the base URL of the fake remote.
func (f *FakeRemote) URL() string {
	return f.server.URL
}

// Seed adds a record to a collection as if another device had pushed
// it, assigning a sync id when the record has none.
func (f *FakeRemote) Seed(collection string, rec client.RemoteRecord) client.RemoteRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.SyncID == "" {
		rec.SyncID = f.newSyncID()
	}
	f.collections[collection] = append(f.collections[collection], rec)

	return rec
}

// Records returns a copy of a collection's records.
func (f *FakeRemote) Records(collection string) []client.RemoteRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	ret := make([]client.RemoteRecord, len(f.collections[collection]))
	copy(ret, f.collections[collection])

	return ret
}

// Overwrite replaces the record with the same sync id, simulating a
// change made by another device.
func (f *FakeRemote) Overwrite(collection string, rec client.RemoteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, cur := range f.collections[collection] {
		if cur.SyncID == rec.SyncID {
			f.collections[collection][i] = rec
			return
		}
	}

	f.collections[collection] = append(f.collections[collection], rec)
}

// Find returns the record with the given sync id, if any.
func (f *FakeRemote) Find(collection, syncID string) (client.RemoteRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.collections[collection] {
		if rec.SyncID == syncID {
			return rec, true
		}
	}

	return client.RemoteRecord{}, false
}

func (f *FakeRemote) newSyncID() string {
	f.nextSyncID++
	return fmt.Sprintf("s%d", f.nextSyncID)
}

func (f *FakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailStatus != 0 {
		http.Error(w, "remote failure", f.FailStatus)
		return
	}

	switch {
	case r.URL.Path == "/v1/signin" && r.Method == "POST":
		f.handleSignin(w, r)
		return
	case r.URL.Path == "/v1/signout" && r.Method == "POST":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+TestSessionKey {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/sync/"), "/")

	switch {
	case len(parts) == 1 && r.Method == "GET":
		f.handleList(w, r, parts[0])
	case len(parts) == 1 && r.Method == "POST":
		f.handleCreate(w, r, parts[0])
	case len(parts) == 2 && r.Method == "PATCH":
		f.handleUpdate(w, r, parts[0], parts[1])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (f *FakeRemote) handleSignin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if body.Password == "wrong" {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(client.SigninResp{Key: TestSessionKey, ExpiresAt: 4102444800})
}

func (f *FakeRemote) handleList(w http.ResponseWriter, r *http.Request, collection string) {
	f.ListCalls++

	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize == 0 {
		pageSize = 100
	}

	var changed []client.RemoteRecord
	for _, rec := range f.collections[collection] {
		if rec.UpdatedAt > since {
			changed = append(changed, rec)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].UpdatedAt < changed[j].UpdatedAt })

	if len(changed) > pageSize {
		changed = changed[:pageSize]
	}

	json.NewEncoder(w).Encode(client.ListChangedResp{Records: changed})
}

func (f *FakeRemote) handleCreate(w http.ResponseWriter, r *http.Request, collection string) {
	f.CreateCalls++

	var req client.UpsertRecordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.UUID == "" {
		http.Error(w, "missing uuid", http.StatusUnprocessableEntity)
		return
	}

	// retransmitted create: return the already assigned record
	for _, rec := range f.collections[collection] {
		if rec.UUID == req.UUID {
			json.NewEncoder(w).Encode(client.UpsertRecordResp{Record: rec})
			return
		}
	}

	rec := client.RemoteRecord{
		SyncID:    f.newSyncID(),
		UUID:      req.UUID,
		UpdatedAt: req.UpdatedAt,
		DeletedAt: req.DeletedAt,
		Payload:   req.Payload,
	}
	f.collections[collection] = append(f.collections[collection], rec)

	json.NewEncoder(w).Encode(client.UpsertRecordResp{Record: rec})
}

func (f *FakeRemote) handleUpdate(w http.ResponseWriter, r *http.Request, collection, syncID string) {
	f.UpdateCalls++

	var req client.UpsertRecordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	for i, rec := range f.collections[collection] {
		if rec.SyncID != syncID {
			continue
		}

		if req.BaseUpdatedAt < rec.UpdatedAt {
			http.Error(w, "stale version", http.StatusConflict)
			return
		}

		rec.UpdatedAt = req.UpdatedAt
		rec.DeletedAt = req.DeletedAt
		rec.Payload = req.Payload
		f.collections[collection][i] = rec

		json.NewEncoder(w).Encode(client.UpsertRecordResp{Record: rec})
		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}
