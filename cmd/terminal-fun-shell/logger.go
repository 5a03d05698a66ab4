// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// envDebug enables debug logging when set to any non-empty value.
const envDebug = "TERMINAL_FUN_DEBUG"

// newLogger creates the command logger. When w is a terminal it uses
// slog.TextHandler for human-readable output; when it is piped or
// redirected it uses slog.JSONHandler. --verbose or TERMINAL_FUN_DEBUG
// lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || os.Getenv(envDebug) != "" {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
