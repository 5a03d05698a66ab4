// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/terminal-fun/terminal-fun/sandbox"
)

// exitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output.
type exitError struct {
	Code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *exitError) ExitCode() int {
	return e.Code
}

// Colors use ANSI 256-color codes for broad terminal compatibility.
var (
	colorPass   = lipgloss.Color("2")
	colorWarn   = lipgloss.Color("3")
	colorFail   = lipgloss.Color("1")
	colorFaint  = lipgloss.Color("245")
	colorBorder = lipgloss.Color("1")
)

// printChecklist prints doctor results as a checklist. Warnings do not
// change the exit status; any failure returns *exitError with code 1.
func printChecklist(w io.Writer, results []sandbox.ValidationResult) error {
	renderer := lipgloss.NewRenderer(w)
	nameStyle := renderer.NewStyle().Width(12)
	messageStyle := renderer.NewStyle().Foreground(colorFaint)

	colors := map[sandbox.CheckStatus]lipgloss.Color{
		sandbox.CheckPass: colorPass,
		sandbox.CheckWarn: colorWarn,
		sandbox.CheckFail: colorFail,
	}
	counts := map[sandbox.CheckStatus]int{}
	for _, result := range results {
		counts[result.Status]++
		status := renderer.NewStyle().Bold(true).Foreground(colors[result.Status]).Render("[" + result.Status.String() + "]")
		fmt.Fprintf(w, "%s  %s  %s\n", status, nameStyle.Render(result.Name), messageStyle.Render(result.Message))
	}

	fmt.Fprintln(w)
	switch {
	case counts[sandbox.CheckFail] > 0:
		fmt.Fprintf(w, "%d check(s) failed. The practice shell cannot start until they are fixed.\n", counts[sandbox.CheckFail])
		return &exitError{Code: 1}
	case counts[sandbox.CheckWarn] > 0:
		fmt.Fprintf(w, "The practice shell will work, with %d warning(s).\n", counts[sandbox.CheckWarn])
	default:
		fmt.Fprintln(w, "All checks passed.")
	}
	return nil
}

// isUserFacing reports whether err should be shown to the learner in an
// error box rather than as a plain error line.
func isUserFacing(err error) bool {
	var materializationError *sandbox.MaterializationError
	var spawnError *sandbox.SpawnError
	return errors.As(err, &materializationError) || errors.As(err, &spawnError)
}

// printErrorBox renders a provisioning failure with the offending path
// and a hint on what to do about it.
func printErrorBox(w io.Writer, err error) {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Bold(true).Foreground(colorFail)
	box := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	lines := []string{title.Render("The practice shell could not start")}

	var materializationError *sandbox.MaterializationError
	var spawnError *sandbox.SpawnError
	switch {
	case errors.As(err, &materializationError):
		lines = append(lines,
			"",
			"Your practice home could not be prepared.",
			"Path:    "+materializationError.Path,
			"Problem: "+materializationError.Err.Error(),
			"",
			"Check that the folder is writable and the disk is not full,",
			"or choose another location with --data-dir.",
		)
	case errors.As(err, &spawnError):
		lines = append(lines,
			"",
			"The shell program could not be launched.",
		)
		if spawnError.Path != "" {
			lines = append(lines, "Program: "+spawnError.Path)
		}
		lines = append(lines,
			"Problem: "+spawnError.Err.Error(),
			"",
			"Check that the shell is installed, or choose one with --shell.",
		)
	default:
		lines = append(lines, "", err.Error())
	}

	fmt.Fprintln(w, box.Render(strings.Join(lines, "\n")))
}
