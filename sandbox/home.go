// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// StandardSubdirectories are created in every sandbox home. Existing
// directories and their contents are never touched.
var StandardSubdirectories = []string{
	"Documents",
	"Downloads",
	"Pictures",
	"Music",
	"Videos",
	"Desktop",
	"workspace",
	"projects",
	filepath.Join(".vim", "undodir"),
}

// Files owned by the materializer.
const (
	WelcomeFile   = "README.txt"
	ShellRCFile   = ".bashrc"
	EditorRCFile  = ".vimrc"
	GitConfigFile = ".gitconfig"
)

// Home is a materialized sandbox home directory.
type Home struct {
	// Root is the absolute on-disk path of the home.
	Root string

	// DisplayUser is the sanitized user name used for the cosmetic home.
	DisplayUser string

	// Subdirectories lists the standard subdirectories, relative to Root.
	Subdirectories []string

	// Dotfiles lists the generated configuration files, relative to Root.
	Dotfiles []string
}

// DisplayHome returns the cosmetic path the learner sees for Root.
func (h *Home) DisplayHome() string {
	return DisplayHome(h.DisplayUser)
}

// ShellRC returns the on-disk path of the generated .bashrc.
func (h *Home) ShellRC() string {
	return filepath.Join(h.Root, ShellRCFile)
}

// Materialize creates the sandbox home at root. It is idempotent: missing
// directories are created, existing ones and everything inside them are
// left alone. README.txt and .gitconfig are written only when absent,
// since the learner may have edited them. .bashrc and .vimrc are owned
// configuration and are rewritten on every call.
//
// Any failure is returned as a *MaterializationError naming the path.
func Materialize(root, displayUser string) (*Home, error) {
	if root == "" {
		return nil, &MaterializationError{Op: "resolve", Path: root, Err: errors.New("sandbox home path is empty")}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &MaterializationError{Op: "resolve", Path: root, Err: err}
	}

	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, &MaterializationError{Op: "create", Path: absRoot, Err: err}
	}
	if err := unix.Access(absRoot, unix.W_OK); err != nil {
		return nil, &MaterializationError{Op: "write", Path: absRoot, Err: err}
	}

	home := &Home{
		Root:           absRoot,
		DisplayUser:    SanitizeUser(displayUser),
		Subdirectories: append([]string(nil), StandardSubdirectories...),
		Dotfiles:       []string{ShellRCFile, EditorRCFile, GitConfigFile},
	}

	for _, subdirectory := range home.Subdirectories {
		path := filepath.Join(absRoot, subdirectory)
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, &MaterializationError{Op: "create", Path: path, Err: err}
		}
	}

	if err := writeIfAbsent(filepath.Join(absRoot, WelcomeFile), RenderWelcome(home.DisplayUser)); err != nil {
		return nil, err
	}
	if err := writeAlways(filepath.Join(absRoot, ShellRCFile), RenderShellRC(home.DisplayUser)); err != nil {
		return nil, err
	}
	if err := writeAlways(filepath.Join(absRoot, EditorRCFile), RenderVimRC()); err != nil {
		return nil, err
	}
	if err := writeIfAbsent(filepath.Join(absRoot, GitConfigFile), RenderGitConfig(home.DisplayUser)); err != nil {
		return nil, err
	}

	return home, nil
}

// writeAlways replaces path with content by renaming a temporary file over
// it. A symlink the learner left at path is replaced, never followed, so
// the file it points to stays untouched.
func writeAlways(path, content string) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".materialize-*")
	if err != nil {
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}
	temporaryPath := temporary.Name()
	fail := func(err error) error {
		temporary.Close()
		os.Remove(temporaryPath)
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}

	if _, err := temporary.WriteString(content); err != nil {
		return fail(err)
	}
	if err := temporary.Chmod(0644); err != nil {
		return fail(err)
	}
	if err := temporary.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func writeIfAbsent(path, content string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &MaterializationError{Op: "write", Path: path, Err: err}
	}
	return nil
}
