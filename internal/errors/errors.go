// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errors provides the user-facing error taxonomy for the imguictx
// CLI: every fatal condition is wrapped in a CLIError carrying a short
// title, a detail line, and an actionable hint, so main can print one
// consistent, colorized (or JSON-encoded) report instead of a bare Go error
// string.
package errors

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Category distinguishes the broad class of failure, used only to pick an
// exit code and a label; callers should still provide a specific title and
// hint.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryInternal   Category = "internal"
	CategoryPermission Category = "permission"
	CategoryDatabase   Category = "database"
	CategoryNetwork    Category = "network"
	CategoryInput      Category = "input"
)

// CLIError is a user-facing error: a short title, a detail line explaining
// what went wrong, and a hint suggesting how to fix it. Err, when present,
// is the underlying cause and is shown only in verbose/JSON output.
type CLIError struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Hint     string   `json:"hint,omitempty"`
	Err      error    `json:"-"`
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewConfigError reports a problem reading, parsing, or validating
// imguictx's configuration file.
func NewConfigError(title, detail, hint string, err error) error {
	return &CLIError{Category: CategoryConfig, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewInternalError reports a condition the tool considers a bug in itself
// rather than a problem with the user's input or environment.
func NewInternalError(title, detail, hint string, err error) error {
	return &CLIError{Category: CategoryInternal, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewPermissionError reports a filesystem or git permission failure.
func NewPermissionError(title, detail, hint string, err error) error {
	return &CLIError{Category: CategoryPermission, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewDatabaseError reports a failure building or querying the in-memory
// function database / call graph.
func NewDatabaseError(title, detail, hint string, err error) error {
	return &CLIError{Category: CategoryDatabase, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewNetworkError reports a failure reaching a remote service, such as a
// remote git remote.
func NewNetworkError(title, detail, hint string, err error) error {
	return &CLIError{Category: CategoryNetwork, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewInputError reports bad user input, such as an unparseable source-set
// pattern or a config path that doesn't resolve to a repository. Unlike the
// other constructors it takes no underlying error: input errors are
// detected directly, not wrapped from one.
func NewInputError(title, detail, hint string) error {
	return &CLIError{Category: CategoryInput, Title: title, Detail: detail, Hint: hint}
}

// jsonReport is the shape printed by FatalError in JSON mode.
type jsonReport struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// FatalError prints err to stderr — colorized and structured when err is a
// *CLIError, plain otherwise. In jsonMode it prints a single-line JSON report
// to stdout instead. It does not exit the process: callers return a non-zero
// status, which main passes to os.Exit, so their deferred cleanup still runs.
func FatalError(err error, jsonMode bool) {
	if err == nil {
		return
	}

	cliErr, ok := err.(*CLIError)
	if !ok {
		if jsonMode {
			_ = json.NewEncoder(os.Stdout).Encode(jsonReport{Error: err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		}
		return
	}

	if jsonMode {
		report := jsonReport{
			Error:    cliErr.Title,
			Category: string(cliErr.Category),
			Detail:   cliErr.Detail,
			Hint:     cliErr.Hint,
		}
		_ = json.NewEncoder(os.Stdout).Encode(report)
		return
	}

	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("error:"), cliErr.Title)
	if cliErr.Detail != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", cliErr.Detail)
	}
	if cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n", color.YellowString("hint:"), cliErr.Hint)
	}
	if cliErr.Err != nil {
		fmt.Fprintf(os.Stderr, "  %s %v\n", color.New(color.Faint).Sprint("cause:"), cliErr.Err)
	}
}
