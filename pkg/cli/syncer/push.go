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
	stdctx "context"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/log"
)

// PushCollection uploads every dirty record of the collection. Records
// that have never been pushed are created with the local uuid as the
// idempotency key; the rest are updated against the last observed server
// version. A stale-version conflict does not fail the push: the record
// is left dirty and the collection is reported as needing a repull, so
// the next pull can merge the newer server copy and a later push can
// retry. Records the server rejects as invalid are skipped with a
// warning. Any other error aborts the collection.
func PushCollection(reqCtx stdctx.Context, ctx context.VitalogCtx, h Handler) (int, bool, error) {
	db := ctx.DB

	records, err := h.DirtyRecords(db)
	if err != nil {
		return 0, false, errors.Wrapf(err, "listing dirty records in %s", h.Collection())
	}

	pushed := 0
	needsRepull := false

	for _, rec := range records {
		var resp client.UpsertRecordResp
		var err error

		if rec.SyncID == "" {
			resp, err = client.CreateRecord(reqCtx, ctx, h.Collection(), client.UpsertRecordReq{
				UUID:      rec.UUID,
				UpdatedAt: rec.UpdatedAt,
				DeletedAt: rec.DeletedAt,
				Payload:   rec.Payload,
			})
		} else {
			resp, err = client.UpdateRecord(reqCtx, ctx, h.Collection(), rec.SyncID, client.UpsertRecordReq{
				UpdatedAt:     rec.UpdatedAt,
				DeletedAt:     rec.DeletedAt,
				BaseUpdatedAt: rec.PushedAt,
				Payload:       rec.Payload,
			})
		}

		if err != nil {
			var httpErr *client.HTTPError
			if errors.As(err, &httpErr) {
				if httpErr.IsConflict() {
					log.Debug("conflict pushing %s record %s, deferring to next pull\n", h.Collection(), rec.SyncID)
					needsRepull = true
					continue
				}
				if httpErr.IsValidation() {
					log.Warnf("server rejected %s record %s: %v\n", h.Collection(), rec.UUID, err)
					continue
				}
			}

			return pushed, needsRepull, errors.Wrapf(err, "pushing %s record %s", h.Collection(), rec.UUID)
		}

		err = database.ConfirmPush(db, h.Collection(), rec.RowID, resp.Record.SyncID, resp.Record.UpdatedAt)
		if err != nil {
			return pushed, needsRepull, errors.Wrapf(err, "confirming push of %s record %s", h.Collection(), rec.UUID)
		}

		pushed++
	}

	return pushed, needsRepull, nil
}

// Push runs PushCollection over every handler in order. It returns the
// handlers whose collections hit a conflict and need another pull.
func Push(reqCtx stdctx.Context, ctx context.VitalogCtx, handlers []Handler) (int, []Handler, error) {
	total := 0
	var repull []Handler

	for _, h := range handlers {
		n, conflicted, err := PushCollection(reqCtx, ctx, h)
		total += n
		if conflicted {
			repull = append(repull, h)
		}
		if err != nil {
			return total, repull, err
		}
	}

	return total, repull, nil
}
