// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the Terminal Fun
// practice shell.
//
// Configuration is loaded from a single file named either by the
// TERMINAL_FUN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Unlike a server deployment, a learner's machine usually
// has no config file at all, so [Load] falls back to [Default] when no path
// is given. There is no automatic file search.
//
// Host environment variables (SHELL, TERM, USER, LOGNAME, HOME,
// XDG_DATA_HOME) are consulted only to fill fields the file leaves empty;
// they never override an explicit value.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${XDG_DATA_HOME}, ${APPDIR} and ${VAR:-default} patterns are
// expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Sandbox, Shell
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other Terminal Fun packages.
package config
