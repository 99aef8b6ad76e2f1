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

// Package consts provides definitions of constants
package consts

var (
	// VitalogDirName is the name of the directory containing vitalog files
	VitalogDirName = "vitalog"
	// VitalogDBFileName is a filename for the vitalog SQLite database
	VitalogDBFileName = "vitalog.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "vitalogrc"
	// TmpContentFileBase is the base name for the temporary file
	// containing content being edited
	TmpContentFileBase = "VITALOG_TMPCONTENT"
	// TmpContentFileExt is the extension of the temporary content file
	TmpContentFileExt = "md"

	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemDeviceID is the key for the installation identifier of this device
	SystemDeviceID = "device_id"
	// SystemSessionKey is the session key
	SystemSessionKey = "session_token"
	// SystemSessionKeyExpiry is the timestamp at which the session key will expire
	SystemSessionKeyExpiry = "session_token_expiry"
	// SystemLastSyncTime is the timestamp at which the last sync cycle completed
	SystemLastSyncTime = "last_sync_time"
	// SystemLastSyncError is the message of the error that failed the last sync cycle
	SystemLastSyncError = "last_sync_error"
)

var (
	// CollectionFoodEntries is the food entry collection
	CollectionFoodEntries = "food_entries"
	// CollectionSleepEntries is the sleep entry collection
	CollectionSleepEntries = "sleep_entries"
	// CollectionTrainingEntries is the training entry collection
	CollectionTrainingEntries = "training_entries"
	// CollectionDailyGoals is the daily goal collection
	CollectionDailyGoals = "daily_goals"
	// CollectionUserSettings is the user settings collection
	CollectionUserSettings = "user_settings"
)

// Collections is the full set of synced collections in sync order
var Collections = []string{
	CollectionFoodEntries,
	CollectionSleepEntries,
	CollectionTrainingEntries,
	CollectionDailyGoals,
	CollectionUserSettings,
}
