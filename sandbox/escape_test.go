// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// escapeTest attempts to reach outside the isolated practice shell. The
// script runs inside the sandbox; a zero exit means the escape was
// blocked.
type escapeTest struct {
	name        string
	description string
	script      string
}

// requireIsolation skips the test unless bwrap works on this host.
func requireIsolation(t *testing.T) Verdict {
	t.Helper()
	verdict := NewProber(5*time.Second, discardLogger()).Probe(context.Background())
	if !verdict.Available {
		t.Skipf("isolation unavailable: %s", verdict.Reason)
	}
	return verdict
}

// isolatedCommand builds the isolated plan for home and replaces the
// interactive shell after "--" with sh -c script.
func isolatedCommand(t *testing.T, verdict Verdict, home *Home, toolset *Toolset, script string) *exec.Cmd {
	t.Helper()
	plan, err := SelectPlan(verdict, home, toolset, PlanOptions{
		Term:    "dumb",
		Environ: []string{"TERMINAL_FUN_SECRET=leaked"},
	})
	if err != nil {
		t.Fatalf("SelectPlan failed: %v", err)
	}

	argv := plan.Argv()
	separator := slices.Index(argv, "--")
	if separator < 0 {
		t.Fatalf("no -- in isolated argv %v", argv)
	}
	argv = append(argv[:separator+1], "/bin/sh", "-c", script)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = plan.Environ()
	return cmd
}

func TestIsolatedEscapes(t *testing.T) {
	verdict := requireIsolation(t)
	home := testHome(t)
	toolset := testToolset(t)

	tests := []escapeTest{
		{
			name:        "host-pid",
			description: "the test process is not visible in the PID namespace",
			script:      fmt.Sprintf("test ! -e /proc/%d/status || test \"$(cat /proc/%d/comm)\" != %q", os.Getpid(), os.Getpid(), filepath.Base(os.Args[0])),
		},
		{
			name:        "system-write",
			description: "system directories are read-only",
			script:      "! touch /usr/.terminal-fun-escape 2>/dev/null && ! touch /etc/.terminal-fun-escape 2>/dev/null",
		},
		{
			name:        "toolset-write",
			description: "the installed toolset is read-only",
			script:      "! touch /opt/sandbox/bin/.terminal-fun-escape 2>/dev/null",
		},
		{
			name:        "hostname",
			description: "the host name is the sandbox's own",
			script:      `test "$(cat /proc/sys/kernel/hostname)" = terminal-fun`,
		},
		{
			name:        "environment",
			description: "the parent environment is not inherited",
			script:      `test -z "$TERMINAL_FUN_SECRET"`,
		},
		{
			name:        "home",
			description: "the shell starts in the display home",
			script:      `test "$(pwd)" = /home/alice && test "$HOME" = /home/alice`,
		},
		{
			name:        "user",
			description: "no user namespace: the user ID is unchanged",
			script:      fmt.Sprintf("test \"$(id -u)\" = %d", os.Getuid()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := isolatedCommand(t, verdict, home, toolset, tt.script).CombinedOutput()
			if err != nil {
				t.Errorf("escape not blocked (%s): %v\n%s", tt.description, err, output)
			}
		})
	}
}

func TestIsolatedHomeIsShared(t *testing.T) {
	verdict := requireIsolation(t)
	home := testHome(t)

	output, err := isolatedCommand(t, verdict, home, nil, "echo practised > /home/alice/workspace/note && cat /home/alice/README.txt").CombinedOutput()
	if err != nil {
		t.Fatalf("sandbox command failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Welcome") {
		t.Errorf("README not visible inside the sandbox: %s", output)
	}

	note, err := os.ReadFile(filepath.Join(home.Root, "workspace", "note"))
	if err != nil {
		t.Fatalf("file written inside the sandbox is not on disk: %v", err)
	}
	if strings.TrimSpace(string(note)) != "practised" {
		t.Errorf("note = %q", note)
	}
}
