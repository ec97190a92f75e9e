// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the canon CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in cmd/canon/main.go
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Supporting pieces:
//
//   - [NewCommandLogger]: a *slog.Logger for command operations, with
//     text output on terminals and JSON when stderr is redirected.
//
//   - [ExitError]: a handled non-zero exit. Commands that print their
//     own verdict (validate, store has) return it instead of an error
//     so main exits silently with the right code.
//
//   - [WriteJSON]: indented JSON output for commands with a --json
//     flag.
package cli
