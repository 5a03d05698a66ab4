// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
)

// DataHome creates a temporary directory, sets XDG_DATA_HOME to it and
// clears TERMINAL_FUN_CONFIG for the duration of the test. Returns the
// directory.
func DataHome(t *testing.T) string {
	t.Helper()
	directory := t.TempDir()
	t.Setenv("XDG_DATA_HOME", directory)
	t.Setenv("TERMINAL_FUN_CONFIG", "")
	return directory
}
