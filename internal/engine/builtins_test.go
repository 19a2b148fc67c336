// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		success  bool
		contains []string
	}{
		{"overall help", "help", true, []string{"Available commands:", "echo", "history"}},
		{"command help", "help echo", true, []string{"echo - Print text", "--n"}},
		{"help by alias", "? cls", true, []string{"clear - Clear the console"}},
		{"category help", "man network", true, []string{"No commands in category"}},
		{"help unknown", "help nope", false, []string{"Command not found: nope"}},
		{"commands", "commands", true, []string{"whoami", "[System]"}},
		{"commands by category", "commands --category=utility", true, []string{"echo", "date"}},
		{"commands bad category", "commands --category=games", false, []string{"Invalid input"}},
		{"search", "find hist", true, []string{"history"}},
		{"search empty", "search", false, []string{"Usage: search"}},
		{"echo", `echo "hello  world" again`, true, []string{"hello  world again"}},
		{"version", "ver", true, []string{"deskshell 0.1.0", "platform version 1"}},
		{"whoami", "whoami", true, []string{"sess-1"}},
		{"date", "time --utc", true, []string{"UTC"}},
		{"history limit invalid", "history --limit 0", false, []string{"Invalid input"}},
		{"output missing id", "output", false, []string{"Usage: output"}},
		{"output unknown id", "output abc", false, []string{"No command with id abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			res := e.Execute(context.Background(), tt.input, "sess-1")
			assert.Equal(t, tt.success, res.Success, res.Output)
			for _, want := range tt.contains {
				assert.Contains(t, res.Output, want)
			}
		})
	}
}

func TestBuiltins_CommandsCategoryExcludesOthers(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Execute(context.Background(), "commands --category=help", "s")
	require.True(t, res.Success)
	assert.NotContains(t, res.Output, "echo")
	assert.Equal(t, []string{"help", "commands", "search"}, res.Data["commands"])
}

func TestBuiltins_EchoNoNewline(t *testing.T) {
	e, _ := newTestEngine(t)

	res := e.Execute(context.Background(), "echo -n no newline", "s")
	require.True(t, res.Success)
	assert.Equal(t, "no newline", res.Output)
	assert.Equal(t, true, res.Data[DataNoNewline])

	res = e.Execute(context.Background(), "echo plain", "s")
	assert.NotContains(t, res.Data, DataNoNewline)
}

func TestBuiltins_Clear(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, input := range []string{"clear", "cls"} {
		res := e.Execute(context.Background(), input, "s")
		require.True(t, res.Success)
		assert.Empty(t, res.Output)
		assert.Equal(t, true, res.Data[DataClear])
	}
}

func TestBuiltins_History(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res := e.Execute(ctx, "history", "a")
	require.True(t, res.Success)
	assert.Equal(t, "No commands recorded yet.", res.Output)

	e.Execute(ctx, "echo one", "a")
	e.Execute(ctx, "nosuch", "a")
	e.Execute(ctx, "echo other", "b")

	res = e.Execute(ctx, "history", "a")
	require.True(t, res.Success)
	lines := strings.Split(res.Output, "\n")
	// history itself, echo one, nosuch
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "history")
	assert.Contains(t, lines[1], "echo one")
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "nosuch")
	assert.Contains(t, lines[2], "FAIL")
	assert.NotContains(t, res.Output, "other")

	res = e.Execute(ctx, "history --limit 1", "a")
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])

	res = e.Execute(ctx, "history --all", "a")
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "echo other")
}

func TestBuiltins_OutputShortFallsBackToPreview(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	e.Execute(ctx, "echo short text", "s")
	recs, err := store.RecentCommands(ctx, "s", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	res := e.Execute(ctx, "output "+recs[0].ID, "s")
	require.True(t, res.Success)
	assert.Equal(t, "short text", res.Output)
}

func TestBuiltins_Stats(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res := e.Execute(ctx, "stats", "s")
	require.True(t, res.Success)
	assert.Equal(t, "No statistics yet.", res.Output)

	e.Execute(ctx, "echo a", "s")
	e.Execute(ctx, "echo b", "s")

	res = e.Execute(ctx, "stats echo", "s")
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "echo: 2 runs, 100% success")

	res = e.Execute(ctx, "stats ver", "s")
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "No statistics for version")
}
