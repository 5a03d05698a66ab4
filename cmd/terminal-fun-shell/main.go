// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// terminal-fun-shell starts the Terminal Fun practice shell: an
// interactive bash whose home is a private directory owned by the
// program, isolated with bubblewrap when the host allows it.
//
// Usage:
//
//	terminal-fun-shell [flags] [run|plan|doctor|version]
//
// With no subcommand the practice shell is provisioned and attached to
// the current terminal. The process exits with the shell's exit status.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/terminal-fun/terminal-fun/lib/config"
	"github.com/terminal-fun/terminal-fun/lib/process"
	"github.com/terminal-fun/terminal-fun/lib/version"
	"github.com/terminal-fun/terminal-fun/sandbox"
)

const binaryName = "terminal-fun-shell"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		process.Exit(err)
	}
}

// options holds the parsed command line.
type options struct {
	configPath string
	user       string
	isolation  string
	dataDir    string
	shell      string
	verbose    bool
	help       bool
	version    bool
}

func (o *options) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.configPath, "config", "c", "", "path to configuration file (default: $"+config.EnvConfigPath+")")
	flagSet.StringVarP(&o.user, "user", "u", "", "name shown in the practice home path (default: $USER)")
	flagSet.StringVar(&o.isolation, "isolation", "", "isolation mode: auto or off")
	flagSet.StringVar(&o.dataDir, "data-dir", "", "data directory holding the practice home and toolset")
	flagSet.StringVar(&o.shell, "shell", "", "shell for the unisolated fallback (default: $SHELL)")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVarP(&o.help, "help", "h", false, "show help")
	flagSet.BoolVar(&o.version, "version", false, "print version information and exit")
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	opts.addFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if opts.help {
		printHelp(stderr, flagSet)
		return nil
	}
	if opts.version {
		version.Print(stdout, binaryName)
		return nil
	}

	command := "run"
	positional := flagSet.Args()
	if len(positional) > 0 {
		command = positional[0]
		positional = positional[1:]
	}
	if len(positional) > 0 {
		return fmt.Errorf("unexpected argument: %s", positional[0])
	}

	switch command {
	case "version":
		version.Print(stdout, binaryName)
		return nil
	case "run", "plan", "doctor":
	case "help":
		printHelp(stderr, flagSet)
		return nil
	default:
		printHelp(stderr, flagSet)
		return fmt.Errorf("unknown command: %s", command)
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, opts.verbose).With("command", command)

	provisioner, err := newProvisioner(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch command {
	case "plan":
		return runPlan(ctx, stdout, provisioner, cfg.Shell.DisplayUser)
	case "doctor":
		return printChecklist(stdout, provisioner.Check(ctx).Results())
	default:
		err := runShell(ctx, provisioner, cfg.Shell.DisplayUser, os.Stdin, stdout, logger)
		if isUserFacing(err) {
			printErrorBox(stderr, err)
			return &exitError{Code: 1}
		}
		return err
	}
}

// loadConfig loads the configuration file (if any) and applies command
// line overrides on top of it.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.dataDir != "" {
		dataDir, err := filepath.Abs(opts.dataDir)
		if err != nil {
			return nil, fmt.Errorf("resolving --data-dir: %w", err)
		}
		cfg.Paths.DataDir = dataDir
	}
	if opts.isolation != "" {
		cfg.Sandbox.Isolation = config.IsolationMode(opts.isolation)
	}
	if opts.shell != "" {
		cfg.Shell.Path = opts.shell
	}
	if opts.user != "" {
		cfg.Shell.DisplayUser = opts.user
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newProvisioner(cfg *config.Config, logger *slog.Logger) (*sandbox.Provisioner, error) {
	timeout, err := cfg.ProbeTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return sandbox.NewProvisioner(sandbox.Config{
		HomeDir:          cfg.HomeDir(),
		ToolsetDir:       cfg.ToolsetDir(),
		ToolsetSource:    cfg.Paths.ToolsetSource,
		DisableIsolation: cfg.Sandbox.Isolation == config.IsolationOff,
		ProbeTimeout:     timeout,
		Shell:            cfg.Shell.Path,
		Term:             cfg.Shell.Term,
		Hostname:         cfg.Sandbox.Hostname,
		SystemDirs:       cfg.Sandbox.SystemDirs,
		Logger:           logger,
	})
}

// runPlan provisions the home and toolset and prints the launch plan
// without starting the shell.
func runPlan(ctx context.Context, stdout io.Writer, provisioner *sandbox.Provisioner, user string) error {
	preparation, err := provisioner.Prepare(ctx, user)
	if err != nil {
		return err
	}

	if preparation.Verdict.Available {
		fmt.Fprintf(stdout, "# bwrap: %s\n", preparation.Verdict.ToolPath)
	} else {
		fmt.Fprintf(stdout, "# bwrap unavailable: %s\n", preparation.Verdict.Reason)
	}
	fmt.Fprintf(stdout, "# home: %s (shown as %s)\n", preparation.Home.Root, preparation.Home.DisplayHome())
	if preparation.Toolset.Present() {
		fmt.Fprintf(stdout, "# toolset: %s (%d files)\n", preparation.Toolset.Dir, len(preparation.Toolset.Files))
	} else {
		fmt.Fprintf(stdout, "# toolset: not installed\n")
	}
	fmt.Fprint(stdout, sandbox.FormatPlan(preparation.Plan))
	return nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Terminal Fun practice shell.

Starts an interactive shell whose home is a private practice folder.
When bubblewrap is usable the shell runs in its own PID and host name
namespaces with the system mounted read-only; otherwise it runs directly
with HOME pointed at the practice folder.

Usage:
  %[1]s [flags] [command]

Commands:
  run       Provision and start the practice shell (default)
  plan      Provision and print how the shell would be started
  doctor    Check whether this machine can run the practice shell
  version   Print version information

Examples:
  # Start the practice shell
  %[1]s

  # Never use bubblewrap
  %[1]s --isolation off

  # See what would be executed
  %[1]s plan

Flags:
`, binaryName)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
