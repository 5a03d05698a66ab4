// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"strings"
)

// DefaultDisplayUser is used when a user label sanitizes to nothing.
const DefaultDisplayUser = "learner"

// SanitizeUser reduces a human-readable label to a name usable in the
// cosmetic home path: lowercase ASCII letters, digits, '-' and '_', at most
// 32 characters, not starting with '-'.
func SanitizeUser(label string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			builder.WriteRune(r)
		case r == '-':
			if builder.Len() > 0 {
				builder.WriteRune(r)
			}
		case r == ' ' || r == '.':
			if builder.Len() > 0 {
				builder.WriteRune('-')
			}
		}
		if builder.Len() >= 32 {
			break
		}
	}
	name := strings.TrimRight(builder.String(), "-")
	if name == "" {
		return DefaultDisplayUser
	}
	return name
}

// DisplayHome returns the cosmetic home path shown to the learner.
func DisplayHome(displayUser string) string {
	return "/home/" + displayUser
}

// shellRCTemplate is the practice shell's .bashrc. @DISPLAY_HOME@ and
// @DISPLAY_USER@ are substituted by RenderShellRC.
const shellRCTemplate = `# ~/.bashrc for the Terminal Fun practice shell.
# This file is regenerated every time the practice shell starts; put your
# own settings in ~/.bashrc.local instead.

# Where this home really lives, resolved once.
__tf_home="$HOME"
__tf_real_home="$(builtin cd -P -- "$HOME" 2>/dev/null && builtin pwd -P)"
__tf_real_home="${__tf_real_home:-$HOME}"
__tf_display_home="@DISPLAY_HOME@"

# Print $1 with the real home prefix replaced by the display home.
__tf_display_path() {
    local path="$1" prefix
    for prefix in "$__tf_real_home" "$__tf_home"; do
        [ -n "$prefix" ] || continue
        case "$path" in
            "$prefix")
                printf '%s\n' "$__tf_display_home"
                return
                ;;
            "$prefix"/*)
                printf '%s\n' "$__tf_display_home${path#"$prefix"}"
                return
                ;;
        esac
    done
    printf '%s\n' "$path"
}

pwd() {
    __tf_display_path "$(builtin pwd "$@")"
}

__tf_prompt_hook() {
    __tf_display_pwd="$(__tf_display_path "$PWD")"
    case "$__tf_display_pwd" in
        "$__tf_display_home") __tf_prompt_dir="~" ;;
        "$__tf_display_home"/*) __tf_prompt_dir="~${__tf_display_pwd#"$__tf_display_home"}" ;;
        *) __tf_prompt_dir="$__tf_display_pwd" ;;
    esac
}
PROMPT_COMMAND="__tf_prompt_hook${PROMPT_COMMAND:+; $PROMPT_COMMAND}"
__tf_prompt_hook

PS1='\[\e[1;32m\]@DISPLAY_USER@@\h\[\e[0m\]:\[\e[1;34m\]${__tf_prompt_dir}\[\e[0m\]\$ '

alias ls='ls --color=auto'
alias ll='ls -alF'
alias la='ls -A'
alias l='ls -CF'
alias grep='grep --color=auto'
alias egrep='grep -E --color=auto'
alias fgrep='grep -F --color=auto'

export EDITOR=vim
export VISUAL=vim
HISTCONTROL=ignoreboth
HISTSIZE=1000

if [ -f "$HOME/.bashrc.local" ]; then
    . "$HOME/.bashrc.local"
fi
`

// RenderShellRC returns the .bashrc that makes the shell display paths
// under /home/<displayUser> regardless of where the home really lives.
// The real home is resolved through symlinks once at shell start; the
// prompt hook and the pwd override translate the real home and any path
// beneath it, and leave paths outside it unchanged.
func RenderShellRC(displayUser string) string {
	displayUser = SanitizeUser(displayUser)
	return strings.NewReplacer(
		"@DISPLAY_HOME@", DisplayHome(displayUser),
		"@DISPLAY_USER@", displayUser,
	).Replace(shellRCTemplate)
}

const vimRC = `" ~/.vimrc for the Terminal Fun practice shell.
" This file is regenerated every time the practice shell starts.
set nocompatible
syntax on
filetype plugin indent on
set number
set ruler
set showcmd
set showmode
set laststatus=2
set backspace=indent,eol,start
set incsearch
set hlsearch
set expandtab
set tabstop=4
set shiftwidth=4
set undofile
set undodir=~/.vim/undodir
set mouse=
`

// RenderVimRC returns the practice shell's .vimrc.
func RenderVimRC() string {
	return vimRC
}

// RenderGitConfig returns the initial .gitconfig. It is written only once
// because the learner may fill in their own identity.
func RenderGitConfig(displayUser string) string {
	displayUser = SanitizeUser(displayUser)
	return `[user]
	name = ` + displayUser + `
	email = ` + displayUser + `@terminal-fun.local
[init]
	defaultBranch = main
[core]
	editor = vim
[color]
	ui = auto
`
}

// RenderWelcome returns the README.txt placed in a fresh sandbox home.
func RenderWelcome(displayUser string) string {
	displayUser = SanitizeUser(displayUser)
	return `Welcome to your practice home, ` + displayUser + `!

This directory is a safe place to try out commands. It looks like
` + DisplayHome(displayUser) + ` from inside the practice shell, but it is a
private folder that belongs to Terminal Fun and is kept between sessions.

Some folders to explore:

  Documents  Downloads  Pictures  Music  Videos  Desktop
  workspace  projects

Commands that would normally change your whole system (sudo, apt,
systemctl, reboot and friends) are replaced by harmless practice
versions that only pretend to work.

Have fun!
`
}
