// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the command audit trail.
//
// Three record kinds are kept: one CommandRecord per invocation, an
// OutputRecord holding the full output when the preview was cut short, and
// one UsageRecord per command with rolling statistics.
//
// # Key Types
//
//   - Store: the interface the execution engine writes through
//   - SQLite: Store backed by a SQLite database (pure Go driver)
//   - Memory: Store kept in process memory, for tests and ephemeral shells
//
// # Usage
//
//	store, err := storage.Open("~/.deskshell/audit.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	recent, err := store.RecentCommands(ctx, sessionID, 20)
package storage
