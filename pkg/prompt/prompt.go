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

// Package prompt parses interactive yes/no answers
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FormatQuestion renders a yes/no question. The capitalized choice marks
// the answer taken when the user just presses enter.
func FormatQuestion(question string, optimistic bool) string {
	if optimistic {
		return fmt.Sprintf("%s (Y/n)", question)
	}

	return fmt.Sprintf("%s (y/N)", question)
}

// ReadYesNo reads one line from the reader and interprets it as a
// yes/no answer. "y" and "yes" confirm; in optimistic mode an empty
// line confirms as well; anything else declines.
func ReadYesNo(r io.Reader, optimistic bool) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "":
		return optimistic, nil
	default:
		return false, nil
	}
}
