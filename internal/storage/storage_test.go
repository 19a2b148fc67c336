// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveCommand(context.Background(), &CommandRecord{Command: "date", CommandType: "UTILITY", SessionID: "s"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	recent, err := s.RecentCommands(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.Equal(t, path, s.Path())
}

func TestStore_CommandAndOutput(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ts := time.UnixMilli(1_700_000_000_000)

		cmd := &CommandRecord{
			Command:       "ping",
			CommandType:   "NETWORK",
			SubCommand:    "8.8.8.8",
			Arguments:     "a b",
			SessionID:     "session-1",
			Timestamp:     ts,
			ExecutionTime: 42 * time.Millisecond,
			Success:       true,
			OutputPreview: "PING 8.8.8.8...",
			FullOutputID:  "out-1",
		}
		require.NoError(t, s.SaveCommand(ctx, cmd))
		require.NotEmpty(t, cmd.ID)

		require.NoError(t, s.SaveOutput(ctx, &OutputRecord{
			ID:         "out-1",
			CommandID:  cmd.ID,
			FullOutput: "H4sI...",
			OutputType: "compressed",
			Truncated:  true,
			Timestamp:  ts,
		}))

		got, err := s.Command(ctx, cmd.ID)
		require.NoError(t, err)
		assert.Equal(t, *cmd, *got)

		out, err := s.Output(ctx, cmd.ID)
		require.NoError(t, err)
		assert.Equal(t, "out-1", out.ID)
		assert.Equal(t, "compressed", out.OutputType)
		assert.True(t, out.Truncated)

		_, err = s.Command(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
		_, err = s.Output(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestStore_OutputRequiresCommand(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		err := s.SaveOutput(context.Background(), &OutputRecord{CommandID: "nope", FullOutput: "x"})
		assert.Error(t, err)
	})
}

func TestStore_LinkOutput(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cmd := &CommandRecord{Command: "dump", CommandType: "UTILITY", SessionID: "s"}
		require.NoError(t, s.SaveCommand(ctx, cmd))
		require.NoError(t, s.SaveOutput(ctx, &OutputRecord{ID: "out-9", CommandID: cmd.ID, FullOutput: "full"}))
		require.NoError(t, s.LinkOutput(ctx, cmd.ID, "out-9"))

		got, err := s.Command(ctx, cmd.ID)
		require.NoError(t, err)
		assert.Equal(t, "out-9", got.FullOutputID)

		err = s.LinkOutput(ctx, "missing", "out-9")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestStore_RecentCommands(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.UnixMilli(1_700_000_000_000)
		for i := 0; i < 5; i++ {
			session := "a"
			if i%2 == 1 {
				session = "b"
			}
			require.NoError(t, s.SaveCommand(ctx, &CommandRecord{
				Command:     fmt.Sprintf("cmd%d", i),
				CommandType: "UTILITY",
				SessionID:   session,
				Timestamp:   base.Add(time.Duration(i) * time.Second),
			}))
		}

		all, err := s.RecentCommands(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "cmd4", all[0].Command)
		assert.Equal(t, "cmd0", all[4].Command)

		a, err := s.RecentCommands(ctx, "a", 2)
		require.NoError(t, err)
		require.Len(t, a, 2)
		assert.Equal(t, "cmd4", a[0].Command)
		assert.Equal(t, "cmd2", a[1].Command)
	})
}

func TestStore_Usage(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.UnixMilli(1_700_000_000_000)

		require.NoError(t, s.UpsertUsage(ctx, &UsageRecord{
			Command: "ping", Category: "NETWORK", UsageCount: 1, LastUsed: now,
			SuccessRate: 1, AverageExecutionTime: 10 * time.Millisecond, TotalExecutionTime: 10 * time.Millisecond,
		}))
		require.NoError(t, s.UpsertUsage(ctx, &UsageRecord{
			Command: "ping", Category: "NETWORK", UsageCount: 2, LastUsed: now,
			SuccessRate: 0.5, AverageExecutionTime: 15 * time.Millisecond, TotalExecutionTime: 30 * time.Millisecond,
		}))
		require.NoError(t, s.UpsertUsage(ctx, &UsageRecord{
			Command: "date", Category: "UTILITY", UsageCount: 2, LastUsed: now,
		}))
		require.NoError(t, s.UpsertUsage(ctx, &UsageRecord{
			Command: "help", Category: "HELP", UsageCount: 5, LastUsed: now,
		}))

		ping, err := s.Usage(ctx, "ping")
		require.NoError(t, err)
		assert.EqualValues(t, 2, ping.UsageCount)
		assert.InDelta(t, 0.5, ping.SuccessRate, 1e-9)
		assert.Equal(t, 15*time.Millisecond, ping.AverageExecutionTime)
		assert.Equal(t, 30*time.Millisecond, ping.TotalExecutionTime)

		all, err := s.AllUsage(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"help", "date", "ping"}, []string{all[0].Command, all[1].Command, all[2].Command})

		_, err = s.Usage(ctx, "nope")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestStore_ConcurrentWrites(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.SaveCommand(ctx, &CommandRecord{
					Command:     "echo",
					CommandType: "UTILITY",
					SessionID:   fmt.Sprintf("s%d", i%4),
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		all, err := s.RecentCommands(ctx, "", 0)
		require.NoError(t, err)
		assert.Len(t, all, 20)
	})
}
