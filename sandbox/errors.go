// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "fmt"

// MaterializationError reports that the sandbox home could not be created
// or written. It is fatal to session start and carries the offending path
// so it can be shown to the learner.
type MaterializationError struct {
	Op   string
	Path string
	Err  error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("preparing sandbox home: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// SpawnError reports that the shell process could not be started, either
// because the executable is missing or because the operating system
// refused to create the process or its pseudo-terminal.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("starting practice shell: %v", e.Err)
	}
	return fmt.Sprintf("starting practice shell %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ToolInstallWarning reports that the mock command toolset could not be
// installed. The session continues without the mock commands.
type ToolInstallWarning struct {
	Source string
	Err    error
}

func (e *ToolInstallWarning) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("sandbox toolset not installed: %v", e.Err)
	}
	return fmt.Sprintf("sandbox toolset not installed from %s: %v", e.Source, e.Err)
}

func (e *ToolInstallWarning) Unwrap() error {
	return e.Err
}
