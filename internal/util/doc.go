// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across deskshell packages.
//
// String helpers count runes, never bytes, so previews and help tables never
// split a multi-byte character. Column padding uses display width
// (go-runewidth) so CJK text lines up in help output.
//
// # Usage
//
//	preview := util.Preview(output, 200)    // first 200 runes + "..."
//	cell := util.PadRight("ping", 12)       // "ping        "
//	err := util.WriteFileAtomic(path, 0600, func(w io.Writer) error { ... })
package util
