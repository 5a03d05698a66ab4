// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Terminal Fun
// packages.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls. Paired with [CollectOutput], it bounds
// how long tests that drive a real shell over a pseudo-terminal wait
// for the shell to finish.
//
// [DataHome] points XDG_DATA_HOME at a per-test directory so code that
// resolves the default data directory never touches the real one.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no internal dependencies.
package testutil
