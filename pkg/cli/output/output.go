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

// Package output provides functions to print information on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/vitalog/vitalog/pkg/cli/database"
	"github.com/vitalog/vitalog/pkg/cli/log"
)

// FoodEntry prints a food entry
func FoodEntry(e database.FoodEntry) {
	log.Plainf("  (%d) %s  %.1fg protein  [%s, %s confidence]\n",
		e.RowID, e.FoodName, e.Protein, e.Source, e.Confidence)
}

// SleepEntry prints a sleep entry
func SleepEntry(e database.SleepEntry) {
	log.Plainf("  (%d) %dh %dm  quality %d/5\n",
		e.RowID, e.DurationMinutes/60, e.DurationMinutes%60, e.Quality)
}

// TrainingEntry prints a training entry
func TrainingEntry(e database.TrainingEntry) {
	line := fmt.Sprintf("  (%d) %s  %dm", e.RowID, e.MuscleGroup, e.DurationMinutes)
	if e.Notes != "" {
		line += fmt.Sprintf("  - %s", e.Notes)
	}
	log.Plainf("%s\n", line)
}

// DaySummary prints the summary line for a day
func DaySummary(date string, totalProtein float64, goal int64) {
	if goal > 0 {
		log.Infof("%s: %.1fg of %dg protein\n", date, totalProtein, goal)
	} else {
		log.Infof("%s: %.1fg protein\n", date, totalProtein)
	}
}

// SyncSummary prints the result of a sync cycle
func SyncSummary(pulled, pushed int) {
	log.Successf("synced: pulled %d, pushed %d\n", pulled, pushed)
}

// SyncStatus prints the persisted sync status
func SyncStatus(lastSyncTime int64, lastSyncError string, dirtyCount int) {
	if lastSyncTime == 0 {
		log.Plain("last synced: never\n")
	} else {
		log.Plainf("last synced: %s\n", time.Unix(lastSyncTime, 0).Format("Jan 2, 2006 3:04pm (MST)"))
	}

	if lastSyncError != "" {
		log.Warnf("last sync failed: %s\n", lastSyncError)
	}

	if dirtyCount == 0 {
		log.Plain("pending changes: none\n")
	} else {
		log.Plainf("pending changes: %d\n", dirtyCount)
	}
}
