// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"path/filepath"
	"sort"
)

// BwrapBuilder assembles bubblewrap command-line arguments. Each method
// appends one bwrap operation in call order, except environment entries,
// which are collected and emitted sorted just before the command so the
// output is deterministic.
//
// The builder has no method for --unshare-user on purpose: see the
// package documentation.
type BwrapBuilder struct {
	args    []string
	env     map[string]string
	command []string
}

// NewBwrapBuilder creates an empty builder.
func NewBwrapBuilder() *BwrapBuilder {
	return &BwrapBuilder{
		args: []string{},
		env:  make(map[string]string),
	}
}

// UnsharePID creates a new PID namespace.
func (b *BwrapBuilder) UnsharePID() *BwrapBuilder {
	b.args = append(b.args, "--unshare-pid")
	return b
}

// UnshareUTS creates a new UTS (host name) namespace.
func (b *BwrapBuilder) UnshareUTS() *BwrapBuilder {
	b.args = append(b.args, "--unshare-uts")
	return b
}

// Hostname sets the host name inside the new UTS namespace.
func (b *BwrapBuilder) Hostname(name string) *BwrapBuilder {
	b.args = append(b.args, "--hostname", name)
	return b
}

// DieWithParent kills the sandbox when the launching process dies.
func (b *BwrapBuilder) DieWithParent() *BwrapBuilder {
	b.args = append(b.args, "--die-with-parent")
	return b
}

// ROBind bind-mounts source read-only at dest.
func (b *BwrapBuilder) ROBind(source, dest string) *BwrapBuilder {
	b.args = append(b.args, "--ro-bind", source, dest)
	return b
}

// Bind bind-mounts source read-write at dest.
func (b *BwrapBuilder) Bind(source, dest string) *BwrapBuilder {
	b.args = append(b.args, "--bind", source, dest)
	return b
}

// Proc mounts a fresh procfs at dest.
func (b *BwrapBuilder) Proc(dest string) *BwrapBuilder {
	b.args = append(b.args, "--proc", dest)
	return b
}

// Dev mounts a minimal devtmpfs at dest.
func (b *BwrapBuilder) Dev(dest string) *BwrapBuilder {
	b.args = append(b.args, "--dev", dest)
	return b
}

// Tmpfs mounts an empty writable tmpfs at dest.
func (b *BwrapBuilder) Tmpfs(dest string) *BwrapBuilder {
	b.args = append(b.args, "--tmpfs", dest)
	return b
}

// Dir creates dest and every missing parent inside the sandbox. bwrap's
// --dir only creates a single component, so each level is emitted.
func (b *BwrapBuilder) Dir(dest string) *BwrapBuilder {
	for _, dir := range pathHierarchy(dest) {
		b.args = append(b.args, "--dir", dir)
	}
	return b
}

// ClearEnv starts the sandboxed process with an empty environment.
func (b *BwrapBuilder) ClearEnv() *BwrapBuilder {
	b.args = append(b.args, "--clearenv")
	return b
}

// SetEnv sets an environment variable for the sandboxed process. A later
// call for the same key wins.
func (b *BwrapBuilder) SetEnv(key, value string) *BwrapBuilder {
	b.env[key] = value
	return b
}

// Chdir sets the working directory inside the sandbox. The host-side
// working directory of the bwrap process does not apply once the mount
// namespace is replaced.
func (b *BwrapBuilder) Chdir(dir string) *BwrapBuilder {
	b.args = append(b.args, "--chdir", dir)
	return b
}

// Command sets the program and arguments executed inside the sandbox.
func (b *BwrapBuilder) Command(argv ...string) *BwrapBuilder {
	b.command = append([]string(nil), argv...)
	return b
}

// Args returns the complete bwrap argument list (without the bwrap
// executable itself).
func (b *BwrapBuilder) Args() ([]string, error) {
	if len(b.command) == 0 {
		return nil, fmt.Errorf("bwrap command is required")
	}

	args := make([]string, 0, len(b.args)+3*len(b.env)+1+len(b.command))
	args = append(args, b.args...)

	envKeys := make([]string, 0, len(b.env))
	for key := range b.env {
		envKeys = append(envKeys, key)
	}
	sort.Strings(envKeys)
	for _, key := range envKeys {
		args = append(args, "--setenv", key, b.env[key])
	}

	args = append(args, "--")
	args = append(args, b.command...)
	return args, nil
}

// pathHierarchy returns all directories in a path from root to the full path.
// For example, "/opt/sandbox/bin" returns:
// ["/opt", "/opt/sandbox", "/opt/sandbox/bin"]
func pathHierarchy(path string) []string {
	path = filepath.Clean(path)
	if path == "/" || path == "." {
		return nil
	}

	var components []string
	current := path
	for current != "/" && current != "." {
		components = append(components, current)
		current = filepath.Dir(current)
	}

	result := make([]string, 0, len(components))
	for i := len(components) - 1; i >= 0; i-- {
		result = append(result, components[i])
	}
	return result
}
