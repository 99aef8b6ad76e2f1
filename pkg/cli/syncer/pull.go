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

var pullPageSize = 100

// PullCollection downloads and applies every record of the collection
// changed since the stored cursor. Each page is applied in one
// transaction together with the cursor advance, so a crash between
// pages leaves the cursor pointing at fully applied data and the next
// pull resumes where this one stopped.
func PullCollection(reqCtx stdctx.Context, ctx context.VitalogCtx, h Handler) (int, error) {
	db := ctx.DB
	applied := 0

	for {
		cursor, err := database.GetCursor(db, h.Collection())
		if err != nil {
			return applied, errors.Wrapf(err, "reading cursor for %s", h.Collection())
		}

		resp, err := client.ListChangedSince(reqCtx, ctx, h.Collection(), cursor, pullPageSize)
		if err != nil {
			return applied, errors.Wrapf(err, "fetching changes for %s", h.Collection())
		}
		if len(resp.Records) == 0 {
			return applied, nil
		}

		log.Debug("pulling %d records for %s since %d\n", len(resp.Records), h.Collection(), cursor)

		tx, err := db.Begin()
		if err != nil {
			return applied, errors.Wrap(err, "beginning a transaction")
		}

		next := cursor
		for _, rec := range resp.Records {
			if err := h.ApplyRemote(tx, rec); err != nil {
				if errors.Is(err, ErrMalformed) {
					log.Warnf("skipping %s record %s: %v\n", h.Collection(), rec.SyncID, err)
				} else {
					tx.Rollback()
					return applied, errors.Wrapf(err, "applying %s record %s", h.Collection(), rec.SyncID)
				}
			} else {
				applied++
			}

			// malformed records still advance the cursor, otherwise
			// every later pull would refetch the same bad page
			if rec.UpdatedAt > next {
				next = rec.UpdatedAt
			}
		}

		if err := database.UpdateCursor(tx, h.Collection(), next); err != nil {
			tx.Rollback()
			return applied, errors.Wrapf(err, "advancing cursor for %s", h.Collection())
		}
		if err := tx.Commit(); err != nil {
			return applied, errors.Wrap(err, "committing a transaction")
		}

		if len(resp.Records) < pullPageSize {
			return applied, nil
		}
	}
}

// Pull runs PullCollection over every handler in order.
func Pull(reqCtx stdctx.Context, ctx context.VitalogCtx, handlers []Handler) (int, error) {
	total := 0

	for _, h := range handlers {
		n, err := PullCollection(reqCtx, ctx, h)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
