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

// Package ui handles the terminal interaction with the user
package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vitalog/vitalog/pkg/cli/log"
	"github.com/vitalog/vitalog/pkg/prompt"
	"golang.org/x/crypto/ssh/terminal"
)

// PromptInput asks the user for a line of input and saves it to dest
func PromptInput(message string, dest *string) error {
	log.Askf(message, false)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	*dest = strings.Trim(line, "\r\n")

	return nil
}

// PromptPassword asks the user for a password and saves it to dest. The
// input is not echoed on the terminal.
func PromptPassword(message string, dest *string) error {
	log.Askf(message, true)

	password, err := terminal.ReadPassword(int(syscall.Stdin))
	// move past the unechoed line before anything else prints
	fmt.Println("")
	if err != nil {
		return errors.Wrap(err, "reading password")
	}

	*dest = string(password)

	return nil
}

// Confirm asks the user a yes/no question
func Confirm(question string, optimistic bool) (bool, error) {
	log.Askf(prompt.FormatQuestion(question, optimistic), false)

	confirmed, err := prompt.ReadYesNo(os.Stdin, optimistic)
	if err != nil {
		return false, errors.Wrap(err, "reading answer")
	}

	return confirmed, nil
}
