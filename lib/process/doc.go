// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These functions
// centralize the raw I/O that happens before the structured logger
// exists or after main() has given up:
//
//   - Error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit with the status carried by an error, so a practice
//     shell's own exit status becomes the launcher's.
package process
