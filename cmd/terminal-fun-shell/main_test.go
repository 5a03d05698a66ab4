// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/terminal-fun/terminal-fun/lib/testutil"
	"github.com/terminal-fun/terminal-fun/sandbox"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		stdout, _, err := runCommand(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.HasPrefix(stdout, binaryName+" ") {
			t.Errorf("%v: output %q", args, stdout)
		}
	}
}

func TestRunHelp(t *testing.T) {
	_, stderr, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
	for _, want := range []string{"Usage:", "doctor", "--isolation"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRunUnknownCommand(t *testing.T) {
	_, _, err := runCommand(t, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v, want unknown command", err)
	}

	_, _, err = runCommand(t, "plan", "extra")
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Errorf("err = %v, want unexpected argument", err)
	}
}

func TestRunPlanDirect(t *testing.T) {
	testutil.DataHome(t)
	t.Setenv(sandbox.EnvPackagedRoot, "")
	dataDir := t.TempDir()

	stdout, _, err := runCommand(t, "plan",
		"--isolation", "off",
		"--data-dir", dataDir,
		"--shell", "/bin/sh",
		"--user", "Alice",
	)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	home := filepath.Join(dataDir, "virtual-home")
	for _, want := range []string{
		"# bwrap unavailable: isolation disabled",
		"# home: " + home + " (shown as /home/alice)",
		"# direct",
		"cd " + home,
		"/bin/sh",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan output missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(home, ".bashrc")); err != nil {
		t.Errorf("plan should materialize the home: %v", err)
	}
}

func TestRunConfigFile(t *testing.T) {
	testutil.DataHome(t)
	t.Setenv(sandbox.EnvPackagedRoot, "")
	dataDir := t.TempDir()
	source := t.TempDir()
	if err := os.MkdirAll(filepath.Join(source, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "bin", "sudo"), []byte("#!/bin/sh\necho pretend\n"), 0755); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configData := "paths:\n  data_dir: " + dataDir + "\n  toolset_source: " + source + "\n" +
		"sandbox:\n  isolation: \"off\"\n" +
		"shell:\n  path: /bin/sh\n  display_user: bob\n"
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCommand(t, "--config", configPath, "plan")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(stdout, "(shown as /home/bob)") {
		t.Errorf("config display user not applied:\n%s", stdout)
	}
	if !strings.Contains(stdout, "# toolset: "+filepath.Join(dataDir, "sandbox")+" (1 files)") {
		t.Errorf("toolset from config not installed:\n%s", stdout)
	}
	if !strings.Contains(stdout, filepath.Join(dataDir, "sandbox", "bin")+":") {
		t.Errorf("toolset bin not on PATH:\n%s", stdout)
	}
}

func TestRunInvalidIsolation(t *testing.T) {
	testutil.DataHome(t)
	_, _, err := runCommand(t, "plan", "--isolation", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "sandbox.isolation") {
		t.Errorf("err = %v, want isolation validation error", err)
	}
}

func TestRunShellHomeFailure(t *testing.T) {
	testutil.DataHome(t)
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "virtual-home"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCommand(t, "run", "--isolation", "off", "--data-dir", dataDir, "--shell", "/bin/sh")
	var exit *exitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
	stderr = ansi.Strip(stderr)
	if !strings.Contains(stderr, "could not start") || !strings.Contains(stderr, filepath.Join(dataDir, "virtual-home")) {
		t.Errorf("error box missing title or path:\n%s", stderr)
	}
}

func TestPrintChecklist(t *testing.T) {
	var buffer bytes.Buffer
	err := printChecklist(&buffer, []sandbox.ValidationResult{
		{Name: "bwrap", Status: sandbox.CheckWarn, Message: "not installed"},
		{Name: "shell", Status: sandbox.CheckPass, Message: "available: /bin/sh"},
	})
	if err != nil {
		t.Errorf("warnings should not fail: %v", err)
	}
	output := ansi.Strip(buffer.String())
	for _, want := range []string{"[WARN]", "[PASS]", "bwrap", "available: /bin/sh", "1 warning(s)"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	buffer.Reset()
	err = printChecklist(&buffer, []sandbox.ValidationResult{
		{Name: "home", Status: sandbox.CheckFail, Message: "not writable: /data"},
	})
	var exit *exitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Errorf("err = %v, want exit code 1", err)
	}
	if !strings.Contains(ansi.Strip(buffer.String()), "[FAIL]") {
		t.Errorf("output missing [FAIL]:\n%s", buffer.String())
	}
}

func TestPrintErrorBox(t *testing.T) {
	var buffer bytes.Buffer
	printErrorBox(&buffer, &sandbox.SpawnError{Path: "/bin/zsh", Err: exec.ErrNotFound})

	output := ansi.Strip(buffer.String())
	for _, want := range []string{"could not start", "Program: /bin/zsh", "--shell"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestIsUserFacing(t *testing.T) {
	if !isUserFacing(&sandbox.MaterializationError{Op: "create", Path: "/x", Err: os.ErrPermission}) {
		t.Error("MaterializationError should be user facing")
	}
	if isUserFacing(errors.New("other")) || isUserFacing(nil) {
		t.Error("plain errors are not user facing")
	}
}

func TestShellExit(t *testing.T) {
	if err := shellExit(nil); err != nil {
		t.Errorf("shellExit(nil) = %v", err)
	}

	tests := []struct {
		script string
		code   int
	}{
		{"exit 3", 3},
		{"kill -TERM $$", 143},
	}
	for _, tt := range tests {
		err := shellExit(exec.Command("/bin/sh", "-c", tt.script).Run())
		var exit *exitError
		if !errors.As(err, &exit) {
			t.Fatalf("%q: err = %v, want *exitError", tt.script, err)
		}
		if exit.Code != tt.code {
			t.Errorf("%q: code = %d, want %d", tt.script, exit.Code, tt.code)
		}
	}

	if err := shellExit(errors.New("boom")); err == nil || errors.As(err, new(*exitError)) {
		t.Errorf("shellExit(other) = %v, want wrapped error", err)
	}
}
