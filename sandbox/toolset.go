// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/terminal-fun/terminal-fun/lib/binhash"
)

// Toolset subdirectory names, shared by the source tree and the installed
// copy.
const (
	toolsetBinDir   = "bin"
	toolsetLibDir   = "lib"
	toolsetStateDir = "state"
)

// Toolset is the installed set of mock commands.
type Toolset struct {
	// Dir is the installed toolset root (contains bin/, lib/, state/).
	Dir string

	// Source is the directory the files were copied from. Empty when no
	// source was found.
	Source string

	// Files lists every installed file.
	Files []ToolFile
}

// ToolFile is one installed toolset file.
type ToolFile struct {
	// Path is the installed path.
	Path string

	// Digest is the hex-encoded BLAKE3 digest of the installed content.
	Digest string

	// Changed is true when the file was absent or differed before this
	// installation.
	Changed bool
}

// BinDir returns the directory prepended to the sandboxed PATH.
func (t *Toolset) BinDir() string {
	return filepath.Join(t.Dir, toolsetBinDir)
}

// LibDir returns the support-library directory.
func (t *Toolset) LibDir() string {
	return filepath.Join(t.Dir, toolsetLibDir)
}

// StateDir returns the writable state directory used by mock commands.
func (t *Toolset) StateDir() string {
	return filepath.Join(t.Dir, toolsetStateDir)
}

// Present reports whether the installed toolset directory exists on disk.
func (t *Toolset) Present() bool {
	if t == nil || t.Dir == "" {
		return false
	}
	info, err := os.Stat(t.BinDir())
	return err == nil && info.IsDir()
}

// Changed returns the installed files whose content changed in this pass.
func (t *Toolset) Changed() []ToolFile {
	var changed []ToolFile
	for _, file := range t.Files {
		if file.Changed {
			changed = append(changed, file)
		}
	}
	return changed
}

// InstallToolset copies source/bin/* into dest/bin with the executable bit
// set and source/lib/* into dest/lib, overwriting existing files on every
// call so updates to the shipped toolset always propagate. dest/state is
// created but never cleared.
//
// A missing source is not an error: the returned Toolset has no files and
// no Source.
func InstallToolset(source, dest string) (*Toolset, error) {
	toolset := &Toolset{Dir: dest}

	if source == "" {
		return toolset, nil
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return toolset, nil
		}
		return toolset, fmt.Errorf("checking toolset source %s: %w", source, err)
	}
	if !info.IsDir() {
		return toolset, fmt.Errorf("toolset source %s is not a directory", source)
	}
	toolset.Source = source

	if err := os.MkdirAll(toolset.StateDir(), 0755); err != nil {
		return toolset, fmt.Errorf("creating %s: %w", toolset.StateDir(), err)
	}

	copies := []struct {
		subdirectory string
		mode         os.FileMode
	}{
		{toolsetBinDir, 0755},
		{toolsetLibDir, 0644},
	}
	for _, c := range copies {
		files, err := copyDirectoryFiles(
			filepath.Join(source, c.subdirectory),
			filepath.Join(dest, c.subdirectory),
			c.mode,
		)
		if err != nil {
			return toolset, err
		}
		toolset.Files = append(toolset.Files, files...)
	}

	return toolset, nil
}

// copyDirectoryFiles copies the regular files directly inside from into
// to with the given mode. A missing from directory is skipped.
func copyDirectoryFiles(from, to string, mode os.FileMode) ([]ToolFile, error) {
	entries, err := os.ReadDir(from)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", from, err)
	}

	if err := os.MkdirAll(to, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", to, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []ToolFile
	for _, entry := range entries {
		sourcePath := filepath.Join(from, entry.Name())
		info, err := os.Stat(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", sourcePath, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		destPath := filepath.Join(to, entry.Name())
		file, err := installFile(sourcePath, destPath, mode)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// installFile replaces destPath with the content of sourcePath. The copy
// goes through a temporary file and a rename so a mock command running in
// another session never sees a half-written script.
func installFile(sourcePath, destPath string, mode os.FileMode) (ToolFile, error) {
	previous, previousErr := binhash.HashFile(destPath)

	source, err := os.Open(sourcePath)
	if err != nil {
		return ToolFile{}, fmt.Errorf("opening %s: %w", sourcePath, err)
	}
	defer source.Close()

	temporary, err := os.CreateTemp(filepath.Dir(destPath), ".install-*")
	if err != nil {
		return ToolFile{}, fmt.Errorf("creating temporary file for %s: %w", destPath, err)
	}
	temporaryPath := temporary.Name()
	cleanup := func() {
		temporary.Close()
		os.Remove(temporaryPath)
	}

	digest, err := binhash.CopyFile(temporary, source)
	if err != nil {
		cleanup()
		return ToolFile{}, fmt.Errorf("installing %s: %w", sourcePath, err)
	}
	if err := temporary.Chmod(mode); err != nil {
		cleanup()
		return ToolFile{}, fmt.Errorf("setting mode on %s: %w", destPath, err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return ToolFile{}, fmt.Errorf("writing %s: %w", destPath, err)
	}
	if err := os.Rename(temporaryPath, destPath); err != nil {
		os.Remove(temporaryPath)
		return ToolFile{}, fmt.Errorf("installing %s: %w", destPath, err)
	}

	return ToolFile{
		Path:    destPath,
		Digest:  digest.String(),
		Changed: previousErr != nil || previous != digest,
	}, nil
}

// LocateToolsetSource finds the shipped toolset: next to the running
// executable first (../share/sandbox, then share/sandbox), then inside the
// packaged distribution root. Returns "" when none exists.
func LocateToolsetSource(executable string, getenv func(string) string) string {
	var candidates []string
	if executable != "" {
		if resolved, err := filepath.EvalSymlinks(executable); err == nil {
			executable = resolved
		}
		executableDir := filepath.Dir(executable)
		candidates = append(candidates,
			filepath.Join(executableDir, "..", "share", "sandbox"),
			filepath.Join(executableDir, "share", "sandbox"),
		)
	}
	if getenv != nil {
		if root := getenv(EnvPackagedRoot); root != "" {
			candidates = append(candidates, filepath.Join(root, "usr", "share", "terminal-fun", "sandbox"))
		}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Clean(candidate)
		}
	}
	return ""
}
