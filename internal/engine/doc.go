// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs command lines end to end.
//
// Execute parses the input, checks permissions and the platform version,
// invokes the command body, times it, writes the audit record and updates
// the per-command usage statistics. Every failure is turned into a failed
// CommandResult; nothing escapes Execute.
//
// # Usage
//
//	eng := engine.New(
//	    engine.WithStore(store),
//	    engine.WithOracle(grants),
//	)
//	result := eng.Execute(ctx, "ping 8.8.8.8 --count 3", sessionID)
package engine
