// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Release builds set these with -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/terminal-fun/terminal-fun/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info returns "<version> (<commit>[-dirty], <build time>)". Values not
// injected at link time come from the VCS stamp the go command embeds
// when building inside a checkout.
func Info() string {
	commit, dirty, built := GitCommit, GitDirty == "true", BuildTime
	if commit == "unknown" {
		if stamp, ok := vcsStamp(); ok {
			commit, dirty = stamp.revision, stamp.modified
			if built == "unknown" && stamp.time != "" {
				built = stamp.time
			}
		}
	}

	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Print writes "<binary> <Full()>" to w.
func Print(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s\n", binary, Full())
}

type stamp struct {
	revision string
	modified bool
	time     string
}

func vcsStamp() (stamp, bool) {
	info, ok := readBuildInfo()
	if !ok {
		return stamp{}, false
	}
	var result stamp
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			result.revision = setting.Value
		case "vcs.modified":
			result.modified = setting.Value == "true"
		case "vcs.time":
			result.time = setting.Value
		}
	}
	if result.revision == "" {
		return stamp{}, false
	}
	if len(result.revision) > 7 {
		result.revision = result.revision[:7]
	}
	return result, true
}
