// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// EnvPackagedRoot names the environment variable that marks a packaged
// distribution (an AppImage mount, for example). When set, a bwrap bundled
// inside it is preferred over the one on PATH.
const EnvPackagedRoot = "APPDIR"

// DefaultProbeTimeout bounds the capability probe when no timeout is
// configured.
const DefaultProbeTimeout = 3 * time.Second

// Verdict is the result of a capability probe. It is computed once per
// session and never modified afterwards.
type Verdict struct {
	// Available is true only if bwrap was found and successfully ran a
	// trivial command in a new PID namespace.
	Available bool

	// ToolPath is the resolved bwrap executable. It may be set even when
	// Available is false (found but not functional).
	ToolPath string

	// Reason explains a negative verdict. Empty when Available is true.
	Reason string
}

// CapabilityProber decides whether isolated launches are possible.
type CapabilityProber interface {
	Probe(ctx context.Context) Verdict
}

// Prober probes the host for a functional bubblewrap.
type Prober struct {
	// Timeout bounds the probe execution. Zero means DefaultProbeTimeout.
	Timeout time.Duration

	// LookPath resolves an executable on PATH. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// Getenv reads the environment. Defaults to os.Getenv.
	Getenv func(key string) string

	// Logger receives debug output about the probe. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewProber returns a Prober using the real PATH and environment.
func NewProber(timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		Timeout: timeout,
		Logger:  logger,
	}
}

// ProbeArgs returns the bwrap arguments used to test namespace creation.
// They request the same namespaces and kernel mounts as the isolated plan,
// since a confinement layer that allows a PID namespace may still refuse a
// UTS namespace or /proc.
func ProbeArgs() []string {
	return []string{
		"--unshare-pid",
		"--unshare-uts",
		"--ro-bind", "/", "/",
		"--dev", "/dev",
		"--proc", "/proc",
		"--", "true",
	}
}

// Probe locates bwrap and runs it once against a trivial command. It never
// returns an error: a missing binary, a non-zero exit, a spawn failure and
// a timeout all produce Available=false with a Reason. There is no retry.
func (p *Prober) Probe(ctx context.Context) Verdict {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path, err := p.locate()
	if err != nil {
		logger.Debug("bwrap not located", "error", err)
		return Verdict{Reason: err.Error()}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, ProbeArgs()...)
	cmd.Env = []string{"PATH=/usr/local/bin:/usr/bin:/bin"}
	// A misbehaving bwrap may leave a grandchild holding the output pipe.
	cmd.WaitDelay = 500 * time.Millisecond
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		logger.Debug("bwrap probe timed out", "path", path, "timeout", timeout)
		return Verdict{
			ToolPath: path,
			Reason:   fmt.Sprintf("%s did not finish within %s", path, timeout),
		}
	}
	if err != nil {
		detail := strings.TrimSpace(output.String())
		logger.Debug("bwrap probe failed", "path", path, "error", err, "output", detail)
		reason := fmt.Sprintf("%s cannot create a PID namespace here: %v", path, err)
		if detail != "" {
			reason += ": " + detail
		}
		return Verdict{ToolPath: path, Reason: reason}
	}

	logger.Debug("bwrap probe succeeded", "path", path, "elapsed", elapsed)
	return Verdict{Available: true, ToolPath: path}
}

// locate finds the bwrap executable: inside the packaged distribution root
// first, then on PATH.
func (p *Prober) locate() (string, error) {
	getenv := p.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if root := getenv(EnvPackagedRoot); root != "" {
		for _, candidate := range []string{
			filepath.Join(root, "usr", "bin", "bwrap"),
			filepath.Join(root, "bin", "bwrap"),
		} {
			if isExecutableFile(candidate) {
				return candidate, nil
			}
		}
	}

	path, err := lookPath("bwrap")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("bubblewrap (bwrap) is not installed")
		}
		return "", fmt.Errorf("locating bwrap: %w", err)
	}
	return path, nil
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
