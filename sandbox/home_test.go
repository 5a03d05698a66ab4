// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaterialize(t *testing.T) {
	root := filepath.Join(t.TempDir(), "virtual-home")

	home, err := Materialize(root, "Alice")
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if home.Root != root {
		t.Errorf("Root = %q, want %q", home.Root, root)
	}
	if home.DisplayUser != "alice" {
		t.Errorf("DisplayUser = %q, want alice", home.DisplayUser)
	}
	if home.DisplayHome() != "/home/alice" {
		t.Errorf("DisplayHome = %q, want /home/alice", home.DisplayHome())
	}

	for _, subdirectory := range StandardSubdirectories {
		info, err := os.Stat(filepath.Join(root, subdirectory))
		if err != nil {
			t.Errorf("subdirectory %s: %v", subdirectory, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", subdirectory)
		}
	}

	for _, name := range []string{WelcomeFile, ShellRCFile, EditorRCFile, GitConfigFile} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("file %s: %v", name, err)
		}
	}

	rc, err := os.ReadFile(home.ShellRC())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rc), `__tf_display_home="/home/alice"`) {
		t.Error(".bashrc does not carry the display home")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	root := t.TempDir()

	if _, err := Materialize(root, "alice"); err != nil {
		t.Fatalf("first Materialize failed: %v", err)
	}

	// Learner content and edits that must survive.
	notes := filepath.Join(root, "workspace", "notes.txt")
	if err := os.WriteFile(notes, []byte("my notes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	gitconfig := filepath.Join(root, GitConfigFile)
	if err := os.WriteFile(gitconfig, []byte("[user]\n\tname = Alice Example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	welcome := filepath.Join(root, WelcomeFile)
	if err := os.WriteFile(welcome, []byte("edited\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Owned configuration that must be regenerated.
	rcPath := filepath.Join(root, ShellRCFile)
	if err := os.WriteFile(rcPath, []byte("# sentinel\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Materialize(root, "alice"); err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}

	assertContent := func(path, want string) {
		t.Helper()
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", filepath.Base(path), got, want)
		}
	}
	assertContent(notes, "my notes\n")
	assertContent(gitconfig, "[user]\n\tname = Alice Example\n")
	assertContent(welcome, "edited\n")
	assertContent(rcPath, RenderShellRC("alice"))
}

func TestMaterializeDisplayUserChange(t *testing.T) {
	root := t.TempDir()

	if _, err := Materialize(root, "alice"); err != nil {
		t.Fatal(err)
	}
	home, err := Materialize(root, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if home.DisplayHome() != "/home/bob" {
		t.Errorf("DisplayHome = %q, want /home/bob", home.DisplayHome())
	}

	rc, err := os.ReadFile(home.ShellRC())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(rc), "/home/alice") {
		t.Error(".bashrc still refers to the previous display user")
	}
}

func TestMaterializeReadOnlyRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	parent := t.TempDir()
	root := filepath.Join(parent, "home")
	if err := os.Mkdir(root, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(root, 0755) })

	_, err := Materialize(root, "alice")
	if err == nil {
		t.Fatal("expected error for read-only root")
	}

	var materializationError *MaterializationError
	if !errors.As(err, &materializationError) {
		t.Fatalf("error %T is not *MaterializationError: %v", err, err)
	}
	if materializationError.Path != root {
		t.Errorf("Path = %q, want %q", materializationError.Path, root)
	}
}

func TestMaterializeRootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "home")
	if err := os.WriteFile(root, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Materialize(root, "alice")
	var materializationError *MaterializationError
	if !errors.As(err, &materializationError) {
		t.Fatalf("expected *MaterializationError, got %v", err)
	}
}

func TestMaterializeEmptyRoot(t *testing.T) {
	_, err := Materialize("", "alice")
	var materializationError *MaterializationError
	if !errors.As(err, &materializationError) {
		t.Fatalf("expected *MaterializationError, got %v", err)
	}
}

func TestMaterializeReplacesSymlinkedDotfiles(t *testing.T) {
	root := t.TempDir()
	if _, err := Materialize(root, "alice"); err != nil {
		t.Fatalf("first Materialize failed: %v", err)
	}

	outside := filepath.Join(t.TempDir(), "real-bashrc")
	notes := filepath.Join(root, "workspace", "notes.txt")
	for path, content := range map[string]string{
		outside: "host shell settings\n",
		notes:   "learner notes\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	links := map[string]string{
		ShellRCFile:  outside,
		EditorRCFile: notes,
	}
	for name, target := range links {
		path := filepath.Join(root, name)
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := Materialize(root, "alice"); err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}

	for path, want := range map[string]string{
		outside: "host shell settings\n",
		notes:   "learner notes\n",
	} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want it unchanged (%q)", path, got, want)
		}
	}

	for name := range links {
		info, err := os.Lstat(filepath.Join(root, name))
		if err != nil {
			t.Fatal(err)
		}
		if !info.Mode().IsRegular() {
			t.Errorf("%s mode = %v, want a regular file", name, info.Mode())
		}
	}
}

func TestMaterializeReplacesDanglingSymlink(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(t.TempDir(), "missing", "bashrc"), filepath.Join(root, ShellRCFile)); err != nil {
		t.Fatal(err)
	}

	home, err := Materialize(root, "alice")
	if err != nil {
		t.Fatalf("Materialize with a dangling .bashrc link failed: %v", err)
	}
	rc, err := os.ReadFile(home.ShellRC())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rc), "/home/alice") {
		t.Error(".bashrc was not regenerated")
	}
}
