// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to text shortened by Preview.
const Ellipsis = "..."

// RuneLen returns the number of runes (characters) in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// TakeRunes returns at most the first n runes of s.
func TakeRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Preview returns s unchanged when it has at most n runes, otherwise the
// first n runes followed by Ellipsis. The result may be n+3 runes long.
func Preview(s string, n int) string {
	if RuneLen(s) <= n {
		return s
	}
	return TakeRunes(s, n) + Ellipsis
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to the given display width. Wider strings are
// returned unchanged.
func PadRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// MaxWidth returns the widest display width among values.
func MaxWidth(values ...string) int {
	max := 0
	for _, v := range values {
		if w := runewidth.StringWidth(v); w > max {
			max = w
		}
	}
	return max
}
