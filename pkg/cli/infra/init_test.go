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

package infra

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/assert"
	"github.com/vitalog/vitalog/pkg/cli/config"
	"github.com/vitalog/vitalog/pkg/cli/consts"
	"github.com/vitalog/vitalog/pkg/cli/context"
	"github.com/vitalog/vitalog/pkg/cli/database"
)

func TestGetDBPath(t *testing.T) {
	paths := context.Paths{Data: "/data"}

	got := getDBPath(paths, "")
	assert.Equal(t, got, fmt.Sprintf("/data/%s/%s", consts.VitalogDirName, consts.VitalogDBFileName), "default path mismatch")

	got = getDBPath(paths, "/custom/vitalog.db")
	assert.Equal(t, got, "/custom/vitalog.db", "custom path mismatch")
}

func TestInitSystem(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	ctx := context.VitalogCtx{DB: db}

	if err := InitSystem(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "initializing system"))
	}

	var deviceID string
	if err := database.GetSystem(db, consts.SystemDeviceID, &deviceID); err != nil {
		t.Fatal(errors.Wrap(err, "getting device id"))
	}
	if deviceID == "" {
		t.Fatal("device id was not generated")
	}

	var schema string
	if err := database.GetSystem(db, consts.SystemSchema, &schema); err != nil {
		t.Fatal(errors.Wrap(err, "getting schema version"))
	}
	assert.Equal(t, schema, schemaVersion, "schema version mismatch")

	// a second run must not regenerate the device id
	if err := InitSystem(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "initializing system again"))
	}

	var got string
	if err := database.GetSystem(db, consts.SystemDeviceID, &got); err != nil {
		t.Fatal(errors.Wrap(err, "getting device id again"))
	}
	assert.Equal(t, got, deviceID, "device id changed between runs")
}

func TestInitConfigFile(t *testing.T) {
	tmp := t.TempDir()
	ctx := context.VitalogCtx{Paths: context.Paths{Config: tmp, Data: tmp, Cache: tmp}}

	if err := initDirs(ctx.Paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating dirs"))
	}

	if err := initConfigFile(ctx, "https://example.com/api"); err != nil {
		t.Fatal(errors.Wrap(err, "creating config"))
	}

	cf, err := config.Read(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading config"))
	}
	assert.Equal(t, cf.APIEndpoint, "https://example.com/api", "api endpoint mismatch")
	if cf.Editor == "" {
		t.Error("editor was not populated")
	}

	// an existing config file is left alone
	cf.APIEndpoint = "https://changed.example.com"
	if err := config.Write(ctx, cf); err != nil {
		t.Fatal(errors.Wrap(err, "updating config"))
	}
	if err := initConfigFile(ctx, "https://example.com/api"); err != nil {
		t.Fatal(errors.Wrap(err, "re-running config init"))
	}

	got, err := config.Read(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading config again"))
	}
	assert.Equal(t, got.APIEndpoint, "https://changed.example.com", "existing config was overwritten")
}
