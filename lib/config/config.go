// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// IsolationMode selects whether the practice shell may use bubblewrap.
type IsolationMode string

const (
	// IsolationAuto probes for a working bubblewrap and uses it when the
	// probe succeeds, falling back to a direct shell otherwise.
	IsolationAuto IsolationMode = "auto"

	// IsolationOff always launches the direct (unisolated) shell.
	IsolationOff IsolationMode = "off"
)

// EnvConfigPath names the environment variable that points at the config
// file when no --config flag is given.
const EnvConfigPath = "TERMINAL_FUN_CONFIG"

// Config is the master configuration for the practice shell.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Sandbox configures isolation.
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Shell configures the interactive shell started inside the sandbox.
	Shell ShellConfig `yaml:"shell"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// DataDir is the per-user data directory. The sandbox home lives in
	// DataDir/virtual-home and the installed toolset in DataDir/sandbox.
	// Default: ${XDG_DATA_HOME}/terminal-fun
	DataDir string `yaml:"data_dir"`

	// ToolsetSource is the directory holding the mock command toolset
	// (bin/ and lib/ subdirectories). Empty means locate it relative to
	// the running executable or the packaged distribution root.
	ToolsetSource string `yaml:"toolset_source"`
}

// SandboxConfig configures isolation.
type SandboxConfig struct {
	// Isolation is "auto" or "off".
	// Default: auto
	Isolation IsolationMode `yaml:"isolation"`

	// ProbeTimeout bounds the bubblewrap capability probe.
	// Default: 3s
	ProbeTimeout string `yaml:"probe_timeout"`

	// SystemDirs are host directories bound read-only into the isolated
	// sandbox when they exist.
	// Default: /usr /bin /sbin /lib /lib64 /etc
	SystemDirs []string `yaml:"system_dirs"`

	// Hostname is the host name set inside the new UTS namespace.
	// Default: terminal-fun
	Hostname string `yaml:"hostname"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	// Path is the shell for the direct (unisolated) launch.
	// Default: $SHELL, then /bin/bash
	Path string `yaml:"path"`

	// Term is the TERM value given to the shell.
	// Default: $TERM, then xterm-256color
	Term string `yaml:"term"`

	// DisplayUser is the user name shown in the cosmetic home path.
	// Default: $USER, then $LOGNAME, then learner
	DisplayUser string `yaml:"display_user"`
}

// Default returns the built-in configuration. Fields derived from the
// host environment are left empty here and filled by [Config.ApplyDefaults].
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "${XDG_DATA_HOME}/terminal-fun",
		},
		Sandbox: SandboxConfig{
			Isolation:    IsolationAuto,
			ProbeTimeout: "3s",
			SystemDirs:   []string{"/usr", "/bin", "/sbin", "/lib", "/lib64", "/etc"},
			Hostname:     "terminal-fun",
		},
	}
}

// Load loads configuration from the TERMINAL_FUN_CONFIG environment
// variable, or returns the defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfigPath)
	if configPath == "" {
		cfg := Default()
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Values present
// in the file always win over environment-derived defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// ApplyDefaults fills empty fields from the host environment and expands
// ${VAR} patterns in paths. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Sandbox.Isolation == "" {
		c.Sandbox.Isolation = IsolationAuto
	}
	if c.Sandbox.ProbeTimeout == "" {
		c.Sandbox.ProbeTimeout = "3s"
	}
	if c.Sandbox.Hostname == "" {
		c.Sandbox.Hostname = "terminal-fun"
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = Default().Paths.DataDir
	}

	if c.Shell.Path == "" {
		c.Shell.Path = firstNonEmpty(os.Getenv("SHELL"), "/bin/bash")
	}
	if c.Shell.Term == "" {
		c.Shell.Term = firstNonEmpty(os.Getenv("TERM"), "xterm-256color")
	}
	if c.Shell.DisplayUser == "" {
		c.Shell.DisplayUser = firstNonEmpty(os.Getenv("USER"), os.Getenv("LOGNAME"), "learner")
	}

	c.expandVariables()
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	homeDir, _ := os.UserHomeDir()
	vars := map[string]string{
		"HOME":          homeDir,
		"XDG_DATA_HOME": firstNonEmpty(os.Getenv("XDG_DATA_HOME"), filepath.Join(homeDir, ".local", "share")),
	}

	c.Paths.DataDir = expandVars(c.Paths.DataDir, vars)
	c.Paths.ToolsetSource = expandVars(c.Paths.ToolsetSource, vars)
	c.Shell.Path = expandVars(c.Shell.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// ProbeTimeoutDuration parses Sandbox.ProbeTimeout.
func (c *Config) ProbeTimeoutDuration() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Sandbox.ProbeTimeout)
	if err != nil {
		return 0, fmt.Errorf("sandbox.probe_timeout: %w", err)
	}
	return timeout, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Sandbox.Isolation != IsolationAuto && c.Sandbox.Isolation != IsolationOff {
		errs = append(errs, fmt.Errorf("sandbox.isolation must be one of: [%s %s], got %q",
			IsolationAuto, IsolationOff, c.Sandbox.Isolation))
	}

	if timeout, err := c.ProbeTimeoutDuration(); err != nil {
		errs = append(errs, err)
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("sandbox.probe_timeout must be positive, got %s", timeout))
	}

	if c.Paths.DataDir == "" {
		errs = append(errs, fmt.Errorf("paths.data_dir is required"))
	} else if !filepath.IsAbs(c.Paths.DataDir) {
		errs = append(errs, fmt.Errorf("paths.data_dir must be absolute, got %q", c.Paths.DataDir))
	}

	for _, dir := range c.Sandbox.SystemDirs {
		if !filepath.IsAbs(dir) {
			errs = append(errs, fmt.Errorf("sandbox.system_dirs entry must be absolute, got %q", dir))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HomeDir returns the sandbox home directory (DataDir/virtual-home).
func (c *Config) HomeDir() string {
	return filepath.Join(c.Paths.DataDir, "virtual-home")
}

// ToolsetDir returns the installed toolset directory (DataDir/sandbox).
func (c *Config) ToolsetDir() string {
	return filepath.Join(c.Paths.DataDir, "sandbox")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
