// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is a Store kept in process memory. Records are lost on exit.
type Memory struct {
	mu       sync.RWMutex
	commands []CommandRecord
	byID     map[string]int
	outputs  map[string]OutputRecord // keyed by command ID
	usage    map[string]UsageRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]int),
		outputs: make(map[string]OutputRecord),
		usage:   make(map[string]UsageRecord),
	}
}

// SaveCommand appends a history record, assigning an ID if empty.
func (m *Memory) SaveCommand(_ context.Context, rec *CommandRecord) error {
	ensureCommandDefaults(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[rec.ID]; exists {
		return fmt.Errorf("save command %s: duplicate id %s", rec.Command, rec.ID)
	}
	m.byID[rec.ID] = len(m.commands)
	m.commands = append(m.commands, *rec)
	return nil
}

// SaveOutput stores a full output for an existing command.
func (m *Memory) SaveOutput(_ context.Context, rec *OutputRecord) error {
	ensureOutputDefaults(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[rec.CommandID]; !exists {
		return fmt.Errorf("save output for %s: %w", rec.CommandID, ErrNotFound)
	}
	m.outputs[rec.CommandID] = *rec
	return nil
}

// LinkOutput sets FullOutputID on an existing history record.
func (m *Memory) LinkOutput(_ context.Context, commandID, outputID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[commandID]
	if !ok {
		return fmt.Errorf("link output for %s: %w", commandID, ErrNotFound)
	}
	m.commands[i].FullOutputID = outputID
	return nil
}

// UpsertUsage replaces the usage summary for rec.Command.
func (m *Memory) UpsertUsage(_ context.Context, rec *UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[rec.Command] = *rec
	return nil
}

// RecentCommands returns the newest records first.
func (m *Memory) RecentCommands(_ context.Context, sessionID string, limit int) ([]CommandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []CommandRecord
	for i := len(m.commands) - 1; i >= 0; i-- {
		rec := m.commands[i]
		if sessionID != "" && rec.SessionID != sessionID {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Command returns the history record with the given id.
func (m *Memory) Command(_ context.Context, id string) (*CommandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec := m.commands[i]
	return &rec, nil
}

// Output returns the full output stored for a command.
func (m *Memory) Output(_ context.Context, commandID string) (*OutputRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.outputs[commandID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Usage returns the usage summary for command.
func (m *Memory) Usage(_ context.Context, command string) (*UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.usage[command]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// AllUsage returns every usage summary, most used first.
func (m *Memory) AllUsage(_ context.Context) ([]UsageRecord, error) {
	m.mu.RLock()
	out := make([]UsageRecord, 0, len(m.usage))
	for _, rec := range m.usage {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Command < out[j].Command
	})
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
