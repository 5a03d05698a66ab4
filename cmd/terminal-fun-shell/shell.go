// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/terminal-fun/terminal-fun/sandbox"
)

// runShell starts the practice shell and connects it to stdin and
// stdout until it exits. When stdin is a terminal it is put in raw mode
// for the duration and window size changes are forwarded to the shell.
func runShell(ctx context.Context, provisioner *sandbox.Provisioner, user string, stdin *os.File, stdout io.Writer, logger *slog.Logger) error {
	terminal, err := provisioner.Start(ctx, user)
	if err != nil {
		return err
	}
	defer terminal.Close()

	stdinFd := int(stdin.Fd())
	if term.IsTerminal(stdinFd) {
		resizeFrom(terminal, stdinFd, logger)

		oldState, err := term.MakeRaw(stdinFd)
		if err != nil {
			terminal.Signal(syscall.SIGKILL)
			terminal.Wait()
			return fmt.Errorf("set terminal raw mode: %w", err)
		}
		defer term.Restore(stdinFd, oldState)

		resizeChannel := make(chan os.Signal, 1)
		signal.Notify(resizeChannel, syscall.SIGWINCH)
		defer signal.Stop(resizeChannel)
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case <-resizeChannel:
					resizeFrom(terminal, stdinFd, logger)
				case <-done:
					return
				}
			}
		}()
	}

	// Hang-ups and termination requests are passed to the shell as a
	// hang-up; its exit then ends the output copy below.
	hangupChannel := make(chan os.Signal, 1)
	signal.Notify(hangupChannel, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(hangupChannel)
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go forwardHangup(hangupChannel, sessionDone, terminal)

	go io.Copy(terminal, stdin)
	if _, err := io.Copy(stdout, terminal); err != nil && !errors.Is(err, syscall.EIO) {
		logger.Debug("shell output copy ended", "error", err)
	}

	return shellExit(terminal.Wait())
}

// signaler is the part of *sandbox.Terminal that forwardHangup needs.
type signaler interface {
	Signal(os.Signal) error
}

// forwardHangup sends the shell one SIGHUP when a signal arrives on
// signals, and returns once it has or once done is closed.
func forwardHangup(signals <-chan os.Signal, done <-chan struct{}, shell signaler) {
	select {
	case <-signals:
		shell.Signal(syscall.SIGHUP)
	case <-done:
	}
}

// resizeFrom copies the size of the terminal on fd to the shell.
func resizeFrom(terminal *sandbox.Terminal, fd int, logger *slog.Logger) {
	columns, rows, err := term.GetSize(fd)
	if err != nil {
		logger.Debug("reading terminal size failed", "error", err)
		return
	}
	if err := terminal.Resize(uint16(columns), uint16(rows)); err != nil {
		logger.Debug("resizing practice shell failed", "error", err)
	}
}

// shellExit turns the shell's wait result into the launcher's exit
// status: nil for success, *exitError carrying the shell's status
// otherwise. A shell killed by a signal exits 128+signal, as a shell
// would report it.
func shellExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("waiting for practice shell: %w", err)
	}

	code := exitErr.ExitCode()
	if code < 0 {
		code = 1
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			code = 128 + int(status.Signal())
		}
	}
	return &exitError{Code: code}
}
