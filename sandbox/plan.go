// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Paths inside the isolated sandbox.
const (
	// SandboxToolsetDir is where the installed toolset is bound read-only.
	SandboxToolsetDir = "/opt/sandbox"

	// SandboxShell is the shell executed inside the isolated sandbox.
	SandboxShell = "/bin/bash"

	// sandboxSystemPath follows the toolset directory on the isolated PATH.
	sandboxSystemPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

	// hostToolPath is the only PATH given to the bwrap process itself.
	hostToolPath = "/usr/local/bin:/usr/bin:/bin"
)

// DefaultSystemDirs are bound read-only into the isolated sandbox when
// they exist on the host.
var DefaultSystemDirs = []string{"/usr", "/bin", "/sbin", "/lib", "/lib64", "/etc"}

// LaunchPlan is a fully resolved way to start the practice shell. It is
// either an *IsolatedPlan or a *DirectPlan; the interface is sealed.
type LaunchPlan interface {
	// Argv is the program and its arguments. Argv[0] is the executable.
	Argv() []string

	// Environ is the complete child environment as sorted KEY=VALUE
	// entries. Nothing is inherited beyond it.
	Environ() []string

	// Dir is the host working directory for the child, or "" to leave
	// it unset.
	Dir() string

	// Isolated reports whether the plan runs inside bwrap.
	Isolated() bool

	launchPlan()
}

// IsolatedPlan runs the shell inside bubblewrap. It has no host working
// directory: the bwrap arguments carry their own --chdir, because the
// host directory does not exist in the sandbox's mount namespace.
type IsolatedPlan struct {
	// Args is the bwrap command line, starting with the bwrap executable.
	Args []string

	// Env is the environment of the bwrap process itself. The sandboxed
	// shell's environment is set by --setenv entries in Args.
	Env map[string]string
}

// DirectPlan runs the shell directly on the host with HOME and PWD pointed
// at the sandbox home.
type DirectPlan struct {
	// Args is the shell command line.
	Args []string

	// Env is the shell's complete environment.
	Env map[string]string

	// WorkingDirectory is the sandbox home. Always set.
	WorkingDirectory string
}

func (p *IsolatedPlan) Argv() []string    { return append([]string(nil), p.Args...) }
func (p *IsolatedPlan) Environ() []string { return environ(p.Env) }
func (p *IsolatedPlan) Dir() string       { return "" }
func (p *IsolatedPlan) Isolated() bool    { return true }
func (p *IsolatedPlan) launchPlan()       {}

func (p *DirectPlan) Argv() []string    { return append([]string(nil), p.Args...) }
func (p *DirectPlan) Environ() []string { return environ(p.Env) }
func (p *DirectPlan) Dir() string       { return p.WorkingDirectory }
func (p *DirectPlan) Isolated() bool    { return false }
func (p *DirectPlan) launchPlan()       {}

// PlanOptions carries the settings SelectPlan needs beyond the probe
// verdict, home and toolset.
type PlanOptions struct {
	// Shell is the shell for the direct plan. Empty means $SHELL from
	// Environ, then /bin/bash.
	Shell string

	// Term is the TERM value for the shell. Empty means $TERM from
	// Environ, then xterm-256color.
	Term string

	// Hostname is set inside the isolated sandbox's UTS namespace.
	// Empty means "terminal-fun".
	Hostname string

	// SystemDirs are bound read-only when isolated. Nil means
	// DefaultSystemDirs.
	SystemDirs []string

	// Environ is the parent environment the direct plan starts from. Nil
	// means os.Environ().
	Environ []string
}

// SelectPlan builds the launch plan for this session: isolated when the
// verdict says bwrap works, direct otherwise.
func SelectPlan(verdict Verdict, home *Home, toolset *Toolset, options PlanOptions) (LaunchPlan, error) {
	if home == nil || home.Root == "" {
		return nil, errors.New("selecting launch plan: sandbox home is required")
	}

	parent := options.Environ
	if parent == nil {
		parent = os.Environ()
	}
	parentEnv := parseEnviron(parent)

	term := firstNonEmpty(options.Term, parentEnv["TERM"], "xterm-256color")

	if !verdict.Available {
		return directPlan(home, toolset, options, parentEnv, term), nil
	}
	if verdict.ToolPath == "" {
		return nil, errors.New("selecting launch plan: available verdict has no bwrap path")
	}
	return isolatedPlan(verdict.ToolPath, home, toolset, options, term)
}

func directPlan(home *Home, toolset *Toolset, options PlanOptions, env map[string]string, term string) *DirectPlan {
	shell := firstNonEmpty(options.Shell, env["SHELL"], "/bin/bash")

	env["HOME"] = home.Root
	env["PWD"] = home.Root
	env["TERM"] = term
	if toolset.Present() {
		if path := env["PATH"]; path != "" {
			env["PATH"] = toolset.BinDir() + ":" + path
		} else {
			env["PATH"] = toolset.BinDir() + ":" + hostToolPath
		}
	}
	// A stale OLDPWD would point outside the sandbox home.
	delete(env, "OLDPWD")

	return &DirectPlan{
		Args:             []string{shell},
		Env:              env,
		WorkingDirectory: home.Root,
	}
}

func isolatedPlan(bwrapPath string, home *Home, toolset *Toolset, options PlanOptions, term string) (*IsolatedPlan, error) {
	displayHome := home.DisplayHome()
	hostname := firstNonEmpty(options.Hostname, "terminal-fun")
	systemDirs := options.SystemDirs
	if systemDirs == nil {
		systemDirs = DefaultSystemDirs
	}

	builder := NewBwrapBuilder().
		UnsharePID().
		UnshareUTS().
		Hostname(hostname).
		DieWithParent()

	for _, dir := range systemDirs {
		if _, err := os.Lstat(dir); err != nil {
			continue
		}
		builder.ROBind(dir, dir)
	}

	builder.
		Proc("/proc").
		Dev("/dev").
		Tmpfs("/tmp").
		Dir("/home").
		Bind(home.Root, displayHome)

	path := sandboxSystemPath
	if toolset.Present() {
		builder.Dir(SandboxToolsetDir).ROBind(toolset.Dir, SandboxToolsetDir)
		path = SandboxToolsetDir + "/" + toolsetBinDir + ":" + path
	}

	builder.
		ClearEnv().
		SetEnv("HOME", displayHome).
		SetEnv("USER", home.DisplayUser).
		SetEnv("SHELL", SandboxShell).
		SetEnv("TERM", term).
		SetEnv("PATH", path).
		Chdir(displayHome).
		Command(SandboxShell, "--rcfile", displayHome+"/"+ShellRCFile, "-i")

	args, err := builder.Args()
	if err != nil {
		return nil, fmt.Errorf("building bwrap arguments: %w", err)
	}

	return &IsolatedPlan{
		Args: append([]string{bwrapPath}, args...),
		Env: map[string]string{
			"PATH": hostToolPath,
			"TERM": term,
		},
	}, nil
}

// plannedKeys are the environment variables SelectPlan sets itself. A
// dry run prints only these; the rest of a direct plan's environment is
// inherited from the caller and may hold credentials.
var plannedKeys = map[string]bool{"HOME": true, "PWD": true, "PATH": true, "TERM": true}

// FormatPlan renders a plan as a shell-like command line for dry runs.
// Inherited environment variables are counted, not printed.
func FormatPlan(plan LaunchPlan) string {
	var builder strings.Builder
	if plan.Isolated() {
		builder.WriteString("# isolated (bubblewrap)\n")
	} else {
		builder.WriteString("# direct (no isolation)\n")
		fmt.Fprintf(&builder, "cd %s\n", shellQuote(plan.Dir()))
	}
	inherited := 0
	for _, entry := range plan.Environ() {
		key, value, _ := strings.Cut(entry, "=")
		if !plannedKeys[key] {
			inherited++
			continue
		}
		fmt.Fprintf(&builder, "%s=%s \\\n", key, shellQuote(value))
	}
	if inherited > 0 {
		fmt.Fprintf(&builder, "# plus %d inherited environment variable(s), not shown\n", inherited)
	}
	argv := plan.Argv()
	for i, arg := range argv {
		if i > 0 {
			builder.WriteString(" \\\n  ")
		}
		builder.WriteString(shellQuote(arg))
	}
	builder.WriteString("\n")
	return builder.String()
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_./:=@,+%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func environ(env map[string]string) []string {
	entries := make([]string, 0, len(env))
	for key, value := range env {
		entries = append(entries, key+"="+value)
	}
	sort.Strings(entries)
	return entries
}

func parseEnviron(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
