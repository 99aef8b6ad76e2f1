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

package inspect

import (
	"bytes"
	stdctx "context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/vitalog/vitalog/pkg/cli/client"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/infra"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/cli/syncer"
)

var allFlag bool
var remoteFlag bool
var diffFlag bool

var example = `
 * Show the sync state of local food entries
 vitalog inspect food_entries

 * Include tombstones
 vitalog inspect food_entries --all

 * Show what the server has, without merging anything
 vitalog inspect sleep_entries --remote

 * Diff unpushed local changes against the server
 vitalog inspect food_entries --diff`

var remotePageSize = 100

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("incorrect number of arguments")
	}
	for _, c := range consts.Collections {
		if args[0] == c {
			return nil
		}
	}

	return errors.Errorf("unknown collection %s", args[0])
}

// NewCmd returns a new inspect command
func NewCmd(ctx context.VitalogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect <collection>",
		Short:   "Show the raw sync state of a collection",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&allFlag, "all", false, "include tombstones")
	f.BoolVar(&remoteFlag, "remote", false, "show the server's records instead of local ones")
	f.BoolVar(&diffFlag, "diff", false, "diff dirty local records against the server")

	return cmd
}

func inspectLocal(ctx context.VitalogCtx, collection string) error {
	q := fmt.Sprintf("SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at FROM %s ORDER BY updated_at", collection)
	if !allFlag {
		q = fmt.Sprintf("SELECT id, uuid, sync_id, updated_at, deleted_at, pushed_at FROM %s WHERE deleted_at = 0 ORDER BY updated_at", collection)
	}

	rows, err := ctx.DB.Query(q)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	log.Plainf("%-4s %-36s %-10s %-12s %-12s %-12s %s\n", "id", "uuid", "sync_id", "updated_at", "deleted_at", "pushed_at", "state")

	count := 0
	for rows.Next() {
		var m database.SyncMeta
		if err := rows.Scan(&m.RowID, &m.UUID, &m.SyncID, &m.UpdatedAt, &m.DeletedAt, &m.PushedAt); err != nil {
			return errors.Wrap(err, "scanning record")
		}

		state := "clean"
		if m.Dirty() {
			state = "dirty"
		}
		if m.Deleted() {
			state = state + " tombstone"
		}

		syncID := m.SyncID
		if syncID == "" {
			syncID = "-"
		}

		log.Plainf("%-4d %-36s %-10s %-12d %-12d %-12d %s\n", m.RowID, m.UUID, syncID, m.UpdatedAt, m.DeletedAt, m.PushedAt, state)
		count++
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterating records")
	}

	cursor, err := database.GetCursor(ctx.DB, collection)
	if err != nil {
		return errors.Wrap(err, "getting pull cursor")
	}

	log.Plainf("\n%d records. pull cursor at %d.\n", count, cursor)

	return nil
}

// fetchRemote pages through the server's records for the collection
// from the beginning of time. Purely read-only; nothing is merged.
func fetchRemote(reqCtx stdctx.Context, ctx context.VitalogCtx, collection string) ([]client.RemoteRecord, error) {
	var ret []client.RemoteRecord

	since := int64(0)
	for {
		resp, err := client.ListChangedSince(reqCtx, ctx, collection, since, remotePageSize)
		if err != nil {
			return nil, errors.Wrap(err, "listing remote records")
		}
		if len(resp.Records) == 0 {
			break
		}

		for _, rec := range resp.Records {
			ret = append(ret, rec)
			if rec.UpdatedAt > since {
				since = rec.UpdatedAt
			}
		}

		if len(resp.Records) < remotePageSize {
			break
		}
	}

	return ret, nil
}

func inspectRemote(ctx context.VitalogCtx, collection string) error {
	records, err := fetchRemote(stdctx.Background(), ctx, collection)
	if err != nil {
		return err
	}

	log.Plainf("%-10s %-36s %-12s %-12s %s\n", "sync_id", "uuid", "updated_at", "deleted_at", "payload")

	for _, rec := range records {
		payload := string(rec.Payload)
		if rec.Tombstone() {
			payload = "-"
		}
		log.Plainf("%-10s %-36s %-12d %-12d %s\n", rec.SyncID, rec.UUID, rec.UpdatedAt, rec.DeletedAt, payload)
	}

	log.Plainf("\n%d records on the server.\n", len(records))

	return nil
}

func indentJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}

	return buf.String()
}

func inspectDiff(ctx context.VitalogCtx, h syncer.Handler) error {
	dirty, err := h.DirtyRecords(ctx.DB)
	if err != nil {
		return errors.Wrap(err, "getting dirty records")
	}
	if len(dirty) == 0 {
		log.Plain("no unpushed changes.\n")
		return nil
	}

	records, err := fetchRemote(stdctx.Background(), ctx, h.Collection())
	if err != nil {
		return err
	}
	remote := map[string]client.RemoteRecord{}
	for _, rec := range records {
		remote[rec.UUID] = rec
	}

	dmp := diffmatchpatch.New()

	for _, rec := range dirty {
		log.Plainf("--- %s\n", rec.UUID)

		rem, ok := remote[rec.UUID]
		if !ok {
			log.Plainf("not on the server yet\n%s\n", indentJSON(rec.Payload))
			continue
		}
		if rec.DeletedAt != 0 {
			log.Plainf("deleted locally, server at version %d\n", rem.UpdatedAt)
			continue
		}

		diffs := dmp.DiffMain(indentJSON(rem.Payload), indentJSON(rec.Payload), false)
		diffs = dmp.DiffCleanupSemantic(diffs)
		log.Plainf("local at %d, server at %d\n%s\n", rec.UpdatedAt, rem.UpdatedAt, dmp.DiffPrettyText(diffs))
	}

	return nil
}

func newRun(ctx context.VitalogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		collection := args[0]

		if (remoteFlag || diffFlag) && ctx.SessionKey == "" {
			log.Error("not logged in. please run `vitalog login`\n")
			return nil
		}

		if diffFlag {
			for _, h := range syncer.DefaultHandlers() {
				if h.Collection() == collection {
					return inspectDiff(ctx, h)
				}
			}
			return errors.Errorf("unknown collection %s", collection)
		}
		if remoteFlag {
			return inspectRemote(ctx, collection)
		}

		return inspectLocal(ctx, collection)
	}
}
