// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config holds configuration for creating a new Provisioner.
type Config struct {
	// HomeDir is where the sandbox home is materialized
	// (<data>/virtual-home).
	HomeDir string

	// ToolsetDir is where the toolset is installed (<data>/sandbox).
	ToolsetDir string

	// ToolsetSource is the shipped toolset to install. Empty means
	// LocateToolsetSource relative to the running executable.
	ToolsetSource string

	// DisableIsolation skips the probe and always uses the direct plan.
	DisableIsolation bool

	// Prober decides whether bwrap works. Nil means a Prober with
	// ProbeTimeout.
	Prober CapabilityProber

	// ProbeTimeout bounds the default prober. Zero means
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Shell, Term, Hostname, SystemDirs and Environ are passed to
	// SelectPlan.
	Shell      string
	Term       string
	Hostname   string
	SystemDirs []string
	Environ    []string

	// Logger for provisioning operations.
	Logger *slog.Logger
}

// Provisioner prepares and starts practice shell sessions.
type Provisioner struct {
	config Config
	prober CapabilityProber
	logger *slog.Logger
}

// Preparation is everything decided before the shell is spawned.
type Preparation struct {
	Verdict Verdict
	Home    *Home
	Toolset *Toolset
	Plan    LaunchPlan
}

// NewProvisioner validates config and returns a Provisioner.
func NewProvisioner(config Config) (*Provisioner, error) {
	if config.HomeDir == "" {
		return nil, fmt.Errorf("sandbox home directory is required")
	}
	if config.ToolsetDir == "" {
		return nil, fmt.Errorf("toolset directory is required")
	}

	homeDir, err := filepath.Abs(config.HomeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox home path: %w", err)
	}
	config.HomeDir = homeDir

	toolsetDir, err := filepath.Abs(config.ToolsetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve toolset path: %w", err)
	}
	config.ToolsetDir = toolsetDir

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prober := config.Prober
	if prober == nil {
		prober = NewProber(config.ProbeTimeout, logger)
	}

	return &Provisioner{
		config: config,
		prober: prober,
		logger: logger,
	}, nil
}

// Prepare runs every provisioning step except the spawn, in order: probe,
// materialize the home, install the toolset, select the plan. A probe
// failure downgrades to the direct plan; a toolset failure is logged and
// ignored; a home failure is returned as *MaterializationError.
func (p *Provisioner) Prepare(ctx context.Context, userLabel string) (*Preparation, error) {
	displayUser := SanitizeUser(userLabel)

	verdict := p.probe(ctx)

	home, err := Materialize(p.config.HomeDir, displayUser)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("sandbox home ready", "root", home.Root, "display_home", home.DisplayHome())

	toolset := p.installToolset()

	plan, err := SelectPlan(verdict, home, toolset, PlanOptions{
		Shell:      p.config.Shell,
		Term:       p.config.Term,
		Hostname:   p.config.Hostname,
		SystemDirs: p.config.SystemDirs,
		Environ:    p.config.Environ,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("practice shell planned",
		"isolated", plan.Isolated(),
		"home", home.Root,
		"display_home", home.DisplayHome(),
		"toolset_files", len(toolset.Files),
	)

	return &Preparation{
		Verdict: verdict,
		Home:    home,
		Toolset: toolset,
		Plan:    plan,
	}, nil
}

// Start prepares the session and spawns the shell. On success the caller
// owns the returned Terminal.
func (p *Provisioner) Start(ctx context.Context, userLabel string) (*Terminal, error) {
	preparation, err := p.Prepare(ctx, userLabel)
	if err != nil {
		return nil, err
	}

	terminal, err := Spawn(preparation.Plan)
	if err != nil {
		return nil, err
	}

	p.logger.Info("practice shell started",
		"pid", terminal.Pid(),
		"isolated", preparation.Plan.Isolated(),
	)
	return terminal, nil
}

func (p *Provisioner) probe(ctx context.Context) Verdict {
	if p.config.DisableIsolation {
		p.logger.Info("isolation disabled by configuration, using direct shell")
		return Verdict{Reason: "isolation disabled by configuration"}
	}

	verdict := p.prober.Probe(ctx)
	if !verdict.Available {
		p.logger.Info("bubblewrap unavailable, using direct shell", "reason", verdict.Reason)
	}
	return verdict
}

func (p *Provisioner) installToolset() *Toolset {
	source := p.config.ToolsetSource
	if source == "" {
		executable, _ := os.Executable()
		source = LocateToolsetSource(executable, os.Getenv)
	}

	toolset, err := InstallToolset(source, p.config.ToolsetDir)
	if err == nil && toolset.Source == "" {
		err = errors.New("no toolset source found")
	}
	if err != nil {
		warning := &ToolInstallWarning{Source: source, Err: err}
		p.logger.Warn("continuing without mock commands", "error", warning)
		return toolset
	}

	for _, file := range toolset.Changed() {
		p.logger.Debug("toolset file updated", "path", file.Path, "digest", file.Digest)
	}
	return toolset
}
