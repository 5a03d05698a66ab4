// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// CheckStatus is the outcome of one pre-flight check.
type CheckStatus int

const (
	// CheckPass means the practice shell can use this part of the host.
	CheckPass CheckStatus = iota

	// CheckWarn means the shell still starts, with reduced function
	// (for example without isolation or without mock commands).
	CheckWarn

	// CheckFail means the shell cannot start until this is fixed.
	CheckFail
)

func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "PASS"
	case CheckWarn:
		return "WARN"
	case CheckFail:
		return "FAIL"
	default:
		return fmt.Sprintf("CheckStatus(%d)", int(s))
	}
}

// ValidationResult is the outcome of one named check.
type ValidationResult struct {
	Name    string
	Status  CheckStatus
	Message string
}

// Validator collects pre-flight check results for the practice shell. A
// missing or broken bwrap is only a warning, since the session falls back
// to the direct shell.
type Validator struct {
	results []ValidationResult
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Results returns the results in the order the checks ran.
func (v *Validator) Results() []ValidationResult {
	return v.results
}

// Count returns how many results have status.
func (v *Validator) Count(status CheckStatus) int {
	count := 0
	for _, result := range v.results {
		if result.Status == status {
			count++
		}
	}
	return count
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return v.Count(CheckFail) > 0
}

func (v *Validator) record(status CheckStatus, name, message string) {
	v.results = append(v.results, ValidationResult{Name: name, Status: status, Message: message})
}

func (v *Validator) pass(name, message string) { v.record(CheckPass, name, message) }
func (v *Validator) warn(name, message string) { v.record(CheckWarn, name, message) }
func (v *Validator) fail(name, message string) { v.record(CheckFail, name, message) }

// Check runs every pre-flight check for this provisioner's configuration
// without creating or modifying anything.
func (p *Provisioner) Check(ctx context.Context) *Validator {
	v := NewValidator()

	if p.config.DisableIsolation {
		v.warn("bwrap", "isolation disabled by configuration")
	} else {
		v.ValidateBwrap(ctx, p.prober)
	}
	v.ValidateSystemDirs(p.config.SystemDirs)
	v.ValidateWritableDir("home", p.config.HomeDir)
	v.ValidateWritableDir("toolset", p.config.ToolsetDir)

	source := p.config.ToolsetSource
	if source == "" {
		executable, _ := os.Executable()
		source = LocateToolsetSource(executable, os.Getenv)
	}
	v.ValidateToolsetSource(source)
	v.ValidateShell(firstNonEmpty(p.config.Shell, os.Getenv("SHELL"), "/bin/bash"))
	v.ValidatePTY()

	return v
}

// ValidateBwrap runs the capability probe and reports the verdict.
func (v *Validator) ValidateBwrap(ctx context.Context, prober CapabilityProber) {
	verdict := prober.Probe(ctx)
	switch {
	case verdict.Available:
		v.pass("bwrap", fmt.Sprintf("usable: %s (isolated shell)", verdict.ToolPath))
	case verdict.ToolPath != "":
		v.warn("bwrap", fmt.Sprintf("found but not usable here, the direct shell will be used: %s", verdict.Reason))
	default:
		v.warn("bwrap", fmt.Sprintf("%s; the direct shell will be used", verdict.Reason))
	}
}

// ValidateSystemDirs reports which system directories would be bound into
// the isolated sandbox.
func (v *Validator) ValidateSystemDirs(dirs []string) {
	if dirs == nil {
		dirs = DefaultSystemDirs
	}

	var present, missing []string
	for _, dir := range dirs {
		if _, err := os.Lstat(dir); err == nil {
			present = append(present, dir)
		} else {
			missing = append(missing, dir)
		}
	}

	switch {
	case len(present) == 0:
		v.fail("system_dirs", fmt.Sprintf("none of %s exist", strings.Join(dirs, " ")))
	case len(missing) > 0:
		v.pass("system_dirs", fmt.Sprintf("binding %s (absent: %s)", strings.Join(present, " "), strings.Join(missing, " ")))
	default:
		v.pass("system_dirs", fmt.Sprintf("binding %s", strings.Join(present, " ")))
	}
}

// ValidateWritableDir checks that path exists and is writable, or that
// its nearest existing ancestor is writable so it can be created.
func (v *Validator) ValidateWritableDir(name, path string) {
	if path == "" {
		v.fail(name, "path is required")
		return
	}

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			v.fail(name, fmt.Sprintf("not a directory: %s", path))
			return
		}
		if err := unix.Access(path, unix.W_OK); err != nil {
			v.fail(name, fmt.Sprintf("not writable: %s", path))
			return
		}
		v.pass(name, fmt.Sprintf("exists: %s", path))
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		v.fail(name, fmt.Sprintf("cannot access %s: %v", path, err))
		return
	}

	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK); err != nil {
		v.fail(name, fmt.Sprintf("cannot create %s: %s is not writable", path, ancestor))
		return
	}
	v.pass(name, fmt.Sprintf("will be created: %s", path))
}

// ValidateToolsetSource checks that the shipped mock commands can be found.
func (v *Validator) ValidateToolsetSource(source string) {
	if source == "" {
		v.warn("toolset", "no toolset source found (mock commands will be missing)")
		return
	}

	entries, err := os.ReadDir(filepath.Join(source, toolsetBinDir))
	if err != nil {
		v.warn("toolset", fmt.Sprintf("cannot read %s: %v", filepath.Join(source, toolsetBinDir), err))
		return
	}
	v.pass("toolset", fmt.Sprintf("%d mock commands in %s", len(entries), source))
}

// ValidateShell checks that the direct-plan shell exists.
func (v *Validator) ValidateShell(shell string) {
	path, err := exec.LookPath(shell)
	if err != nil {
		v.fail("shell", fmt.Sprintf("%s not found: %v", shell, err))
		return
	}
	v.pass("shell", fmt.Sprintf("available: %s", path))
}

// ValidatePTY checks that a pseudo-terminal can be allocated.
func (v *Validator) ValidatePTY() {
	master, slavePath, err := openPTY()
	if err != nil {
		v.fail("pty", err.Error())
		return
	}
	master.Close()
	v.pass("pty", fmt.Sprintf("allocated %s", slavePath))
}
