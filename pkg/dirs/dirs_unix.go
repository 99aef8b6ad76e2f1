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

//go:build linux || darwin || freebsd

package dirs

import "path/filepath"

func defaultConfigHome(home string) string {
	return filepath.Join(home, ".config")
}

func defaultDataHome(home string) string {
	return filepath.Join(home, ".local", "share")
}

func defaultCacheHome(home string) string {
	return filepath.Join(home, ".cache")
}
