// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// =============================================================================
// RECORDS
// =============================================================================

// CommandRecord is the audit entry for one invocation.
type CommandRecord struct {
	ID            string
	Command       string
	CommandType   string // category identifier, or "UNKNOWN"
	SubCommand    string
	Arguments     string // positional arguments joined by spaces
	SessionID     string
	Timestamp     time.Time
	ExecutionTime time.Duration
	Success       bool
	OutputPreview string
	FullOutputID  string // empty unless an OutputRecord exists
}

// OutputRecord holds a full command output, possibly compressed.
type OutputRecord struct {
	ID         string
	CommandID  string
	FullOutput string
	OutputType string // "text" or "compressed"
	Truncated  bool
	Timestamp  time.Time
}

// UsageRecord is the rolling usage summary for one command.
type UsageRecord struct {
	Command              string
	Category             string
	UsageCount           int64
	LastUsed             time.Time
	SuccessRate          float64 // 0..1
	AverageExecutionTime time.Duration
	TotalExecutionTime   time.Duration
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the audit storage collaborator. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveCommand(ctx context.Context, rec *CommandRecord) error
	SaveOutput(ctx context.Context, rec *OutputRecord) error

	// LinkOutput points a history record at its stored full output. It is
	// called only after SaveOutput succeeded.
	LinkOutput(ctx context.Context, commandID, outputID string) error

	UpsertUsage(ctx context.Context, rec *UsageRecord) error

	// RecentCommands returns the newest records first. An empty sessionID
	// matches every session; limit <= 0 means no limit.
	RecentCommands(ctx context.Context, sessionID string, limit int) ([]CommandRecord, error)
	Command(ctx context.Context, id string) (*CommandRecord, error)
	Output(ctx context.Context, commandID string) (*OutputRecord, error)
	Usage(ctx context.Context, command string) (*UsageRecord, error)

	// AllUsage orders by usage count descending, then command name.
	AllUsage(ctx context.Context) ([]UsageRecord, error)

	Close() error
}

func ensureCommandDefaults(rec *CommandRecord) {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
}

func ensureOutputDefaults(rec *OutputRecord) {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.OutputType == "" {
		rec.OutputType = "text"
	}
}
