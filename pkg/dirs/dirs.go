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

// Package dirs resolves the base directories following the XDG base
// directory specification
package dirs

import (
	"os"

	"github.com/pkg/errors"
)

var (
	// Home is the home directory of the current user
	Home string
	// ConfigHome is where user-specific configuration is written
	ConfigHome string
	// DataHome is where user-specific data files are written
	DataHome string
	// CacheHome is where non-essential cached data is written
	CacheHome string
)

func init() {
	Reload()
}

// Reload re-resolves the directory definitions from the environment.
// Tests use it after changing the XDG variables.
func Reload() {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, "resolving home dir"))
	}

	Home = home
	ConfigHome = resolve("XDG_CONFIG_HOME", defaultConfigHome(home))
	DataHome = resolve("XDG_DATA_HOME", defaultDataHome(home))
	CacheHome = resolve("XDG_CACHE_HOME", defaultCacheHome(home))
}

func resolve(envName, fallback string) string {
	if dir := os.Getenv(envName); dir != "" {
		return dir
	}

	return fallback
}
