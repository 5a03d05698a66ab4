// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// Terminal is a running practice shell attached to a pseudo-terminal.
// Reads return the shell's output and writes deliver keystrokes. The
// caller owns the Terminal: it must eventually call Wait and Close.
type Terminal struct {
	master *os.File
	cmd    *exec.Cmd
}

// Read reads shell output from the PTY master. After the shell exits,
// Linux reports EIO rather than io.EOF.
func (t *Terminal) Read(p []byte) (int, error) {
	return t.master.Read(p)
}

// Write sends input to the shell.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.master.Write(p)
}

// Pid returns the process ID of the launched program (the shell for a
// direct plan, bwrap for an isolated one).
func (t *Terminal) Pid() int {
	return t.cmd.Process.Pid
}

// Resize sets the terminal size seen by the shell.
func (t *Terminal) Resize(columns, rows uint16) error {
	conn, err := t.master.SyscallConn()
	if err != nil {
		return err
	}
	var resizeErr error
	if err := conn.Control(func(fd uintptr) {
		resizeErr = setWindowSize(int(fd), columns, rows)
	}); err != nil {
		return err
	}
	return resizeErr
}

// Signal delivers sig to the launched process.
func (t *Terminal) Signal(sig os.Signal) error {
	return t.cmd.Process.Signal(sig)
}

// Wait blocks until the shell exits and returns its exit error, if any.
// It must be called exactly once.
func (t *Terminal) Wait() error {
	return t.cmd.Wait()
}

// Close closes the PTY master. A shell still running receives SIGHUP.
func (t *Terminal) Close() error {
	return t.master.Close()
}

// Spawn starts plan on a new pseudo-terminal and returns without waiting
// for it. The child becomes a session leader with the PTY slave as its
// controlling terminal and stdio. Its environment is exactly
// plan.Environ().
//
// Failures (executable missing, PTY allocation or process creation
// refused) are returned as *SpawnError. There is no retry.
func Spawn(plan LaunchPlan) (*Terminal, error) {
	if plan == nil {
		return nil, &SpawnError{Err: errors.New("no launch plan")}
	}
	argv := plan.Argv()
	if len(argv) == 0 {
		return nil, &SpawnError{Err: errors.New("launch plan has an empty command")}
	}

	path, err := lookPlanPath(argv[0], plan.Environ())
	if err != nil {
		return nil, &SpawnError{Path: argv[0], Err: err}
	}

	master, slavePath, err := openPTY()
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	slave, err := os.OpenFile(slavePath, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		master.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}
	// The parent's copy of the slave is only needed until the child
	// has inherited it.
	defer slave.Close()

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Env = plan.Environ()
	cmd.Dir = plan.Dir()
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0, // stdin in the child
	}

	if err := cmd.Start(); err != nil {
		master.Close()
		return nil, &SpawnError{Path: path, Err: err}
	}

	return &Terminal{master: master, cmd: cmd}, nil
}

// lookPlanPath resolves a bare command name against the PATH the child
// will run with, not the launcher's own. Names containing a slash are
// used as given.
func lookPlanPath(name string, environ []string) (string, error) {
	if strings.Contains(name, "/") {
		return exec.LookPath(name)
	}
	var searchPath string
	for _, entry := range environ {
		if value, ok := strings.CutPrefix(entry, "PATH="); ok {
			searchPath = value
		}
	}
	for _, dir := range filepath.SplitList(searchPath) {
		// An empty element means the current directory, which is not
		// meaningful for the practice shell.
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		if candidate := filepath.Join(dir, name); isExecutableFile(candidate) {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}
