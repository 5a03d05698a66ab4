// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox provisions the learner's practice shell: a private home
// directory, a toolset of safe stand-in commands, and an interactive shell
// attached to a pseudo-terminal.
//
// Provisioning runs once per session, strictly in order:
//
//  1. [Prober] decides whether bubblewrap (bwrap) is installed and can
//     actually create a PID namespace here. An outer confinement layer may
//     block the kernel features bwrap needs, so only an executed probe
//     counts. Every failure collapses to a negative [Verdict].
//  2. [Materialize] creates the sandbox home (standard subdirectories,
//     README.txt, .bashrc, .vimrc, .gitconfig) idempotently.
//     [RenderShellRC] generates the .bashrc that makes the shell display a
//     conventional /home/<user> path wherever the home really lives.
//  3. [InstallToolset] copies the mock commands into the tool directory
//     that is prepended to the sandboxed PATH.
//  4. [SelectPlan] builds exactly one [LaunchPlan]: an [IsolatedPlan]
//     assembled by [BwrapBuilder], or a [DirectPlan] that only overrides
//     HOME, PWD, PATH and the working directory.
//  5. [Spawn] starts the plan on a fresh pseudo-terminal and returns a
//     [Terminal] immediately. The caller owns the terminal from then on.
//
// [Provisioner] strings the steps together and is the single entry point
// used by the CLI.
//
// The isolated plan unshares the PID and UTS namespaces but deliberately
// never the user namespace: under an outer confinement layer that
// restricts user namespaces, asking for one makes the spawn fail. This is
// pedagogical containment, not a security boundary. There is no seccomp
// policy and no resource limit, and the direct fallback gives the shell
// the same filesystem access as the learner.
package sandbox
