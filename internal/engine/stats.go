// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/storage"
)

// recordUsage folds one invocation into the rolling statistics and upserts
// the result. Each update is one step under statsMu.
func (e *Engine) recordUsage(ctx context.Context, def *commands.CommandDefinition, success bool, elapsed time.Duration) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	prev := e.stats[def.Name]
	next := foldUsage(prev, success, elapsed, e.now())
	next.Command = def.Name
	next.Category = def.Category.String()
	e.stats[def.Name] = next

	if e.store == nil {
		return
	}
	if err := e.store.UpsertUsage(ctx, &next); err != nil {
		e.failures.Printf("USAGE_WRITE_FAILED | command=%s err=%v", def.Name, err)
	}
}

// foldUsage applies the running-mean updates:
//
//	rate' = (rate*n + ok) / (n+1)
//	avg'  = (avg*n + t) / (n+1)
func foldUsage(prev storage.UsageRecord, success bool, elapsed time.Duration, now time.Time) storage.UsageRecord {
	n := float64(prev.UsageCount)
	count := prev.UsageCount + 1

	ok := 0.0
	if success {
		ok = 1
	}

	next := prev
	next.UsageCount = count
	next.LastUsed = now
	next.SuccessRate = (prev.SuccessRate*n + ok) / float64(count)
	next.AverageExecutionTime = time.Duration((float64(prev.AverageExecutionTime)*n + float64(elapsed)) / float64(count))
	next.TotalExecutionTime = prev.TotalExecutionTime + elapsed
	return next
}

// LoadStats seeds the in-memory statistics from the store so counts carry
// over between runs.
func (e *Engine) LoadStats(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	records, err := e.store.AllUsage(ctx)
	if err != nil {
		return fmt.Errorf("load usage statistics: %w", err)
	}

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	for _, rec := range records {
		e.stats[rec.Command] = rec
	}
	return nil
}

// Stats returns the usage statistics for a command.
func (e *Engine) Stats(name string) (storage.UsageRecord, bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	rec, ok := e.stats[name]
	return rec, ok
}

// AllStats returns every command's statistics, most used first.
func (e *Engine) AllStats() []storage.UsageRecord {
	e.statsMu.Lock()
	out := make([]storage.UsageRecord, 0, len(e.stats))
	for _, rec := range e.stats {
		out = append(out, rec)
	}
	e.statsMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Command < out[j].Command
	})
	return out
}
