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

// Package validate provides validation of user input for entries
package validate

import (
	"time"

	"github.com/pkg/errors"
)

// ErrDateInvalid is an error for an invalid entry date
var ErrDateInvalid = errors.New("date must be in the YYYY-MM-DD format")

// ErrSourceInvalid is an error for an invalid food entry source
var ErrSourceInvalid = errors.New("source must be one of: text, photo, manual, label")

// ErrConfidenceInvalid is an error for an invalid food entry confidence
var ErrConfidenceInvalid = errors.New("confidence must be one of: high, medium, low")

// ErrQualityInvalid is an error for an invalid sleep quality
var ErrQualityInvalid = errors.New("quality must be between 1 and 5")

// ErrDurationInvalid is an error for an invalid duration
var ErrDurationInvalid = errors.New("duration must be a positive number of minutes")

// ErrGoalInvalid is an error for an invalid protein goal
var ErrGoalInvalid = errors.New("goal must be a positive number of grams")

// Date validates an entry date
func Date(date string) error {
	t, err := time.Parse("2006-01-02", date)
	if err != nil || t.Format("2006-01-02") != date {
		return ErrDateInvalid
	}

	return nil
}

// Source validates the source of a food entry
func Source(source string) error {
	switch source {
	case "text", "photo", "manual", "label":
		return nil
	}

	return ErrSourceInvalid
}

// Confidence validates the confidence of a food entry
func Confidence(confidence string) error {
	switch confidence {
	case "high", "medium", "low":
		return nil
	}

	return ErrConfidenceInvalid
}

// Quality validates a sleep quality rating
func Quality(quality int64) error {
	if quality < 1 || quality > 5 {
		return ErrQualityInvalid
	}

	return nil
}

// Duration validates a duration in minutes
func Duration(minutes int64) error {
	if minutes <= 0 {
		return ErrDurationInvalid
	}

	return nil
}

// Goal validates a protein goal in grams
func Goal(grams int64) error {
	if grams <= 0 {
		return ErrGoalInvalid
	}

	return nil
}
