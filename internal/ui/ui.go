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

// Package ui provides the terminal output primitives shared by imguictx's
// subcommands: colorized headers and labels, a progress bar wired to
// isatty detection, and plain-text fallbacks for piped or --no-color runs.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Color handles for inline use (ui.Green.Println, ui.Dim.Printf, ...).
var (
	Cyan   = color.New(color.FgCyan)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Dim    = color.New(color.Faint)
)

// InitColors disables color output globally when noColor is set or stdout
// isn't a terminal, matching what a piped or CI invocation expects.
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section heading.
func Header(title string) {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("\n%s\n", title)
	_, _ = Dim.Println(dashes(len(title)))
}

// SubHeader prints a lighter-weight heading under a Header block.
func SubHeader(title string) {
	_, _ = color.New(color.Bold).Printf("\n%s\n", title)
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

// Label renders a field label (e.g. "Project ID:") in bold for use before a
// plain value on the same line.
func Label(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// DimText renders s in the faint/dim color.
func DimText(s string) string {
	return Dim.Sprint(s)
}

// CountText renders an integer count, formatted with thousands separators.
func CountText(n int) string {
	return Cyan.Sprint(formatCount(n))
}

func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// Info prints an informational line to stderr.
func Info(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Cyan.Sprint("info:"), msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...interface{}) {
	Info(fmt.Sprintf(format, args...))
}

// Success prints a success line to stderr.
func Success(msg string) {
	_, _ = Green.Fprintf(os.Stderr, "%s %s\n", "✓", msg)
}

// Successf is Success with formatting.
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning line to stderr.
func Warning(msg string) {
	_, _ = Yellow.Fprintf(os.Stderr, "%s %s\n", "warning:", msg)
}

// Warningf is Warning with formatting.
func Warningf(format string, args ...interface{}) {
	Warning(fmt.Sprintf(format, args...))
}

// ProgressConfig carries the settings NewProgressBar needs to decide
// whether to render an interactive bar at all.
type ProgressConfig struct {
	Quiet   bool
	NoColor bool
}

// NewProgressConfig builds a ProgressConfig from the CLI's global flags.
func NewProgressConfig(quiet, noColor bool) ProgressConfig {
	return ProgressConfig{Quiet: quiet, NoColor: noColor}
}

// NewProgressBar returns a progress bar for a phase of total steps, or a
// no-op bar when quiet mode is active or output isn't a terminal.
func NewProgressBar(cfg ProgressConfig, total int, description string) *progressbar.ProgressBar {
	if cfg.Quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.DefaultBytesSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
}
