// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for Terminal Fun
// binaries.
//
// Four package-level variables can be injected at build time via
// -ldflags -X: [GitCommit], [GitDirty], [BuildTime] and [Version]. When
// the commit is not injected, [Info] falls back to the revision the go
// command stamps into binaries built from a git checkout, so a plain
// "go install" still reports where it came from.
//
// [Print] writes the --version output: the binary name, [Info], the Go
// version and the platform.
package version
