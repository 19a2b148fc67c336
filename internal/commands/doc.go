// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands holds the command catalog and the command-line parser.
//
// # Key Types
//
//   - Registry: command definitions, aliases and the category index
//   - Parser: tokenizes, binds and validates a raw command line
//   - CommandDefinition: a named command with typed parameters and an Executor
//   - ParsedCommand: the validated form of one invocation
//   - ValidationError, NotFoundError, PermissionError, ExecutionError
//
// # Grammar
//
//	name [sub-command] [--flag[=value] | --flag value | -x | positional]*
//
// Tokens containing whitespace are quoted with " or '.
//
// # Usage
//
//	reg := commands.NewRegistry()
//	_ = reg.Register(&commands.CommandDefinition{Name: "ping", Executor: pingFn})
//	parsed, err := commands.NewParser(reg).Parse(`ping "8.8.8.8" --count 3`)
package commands
