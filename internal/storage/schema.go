// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the audit tables. Times are Unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per invocation
CREATE TABLE IF NOT EXISTS command_history (
    id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    command_type TEXT NOT NULL,
    sub_command TEXT,
    arguments TEXT,
    session_id TEXT NOT NULL,
    timestamp_ms INTEGER NOT NULL,
    execution_time_ms INTEGER NOT NULL,
    success INTEGER NOT NULL,
    output_preview TEXT,
    full_output_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_session ON command_history(session_id, timestamp_ms);
CREATE INDEX IF NOT EXISTS idx_history_command ON command_history(command);

-- Full output when the preview was cut short
CREATE TABLE IF NOT EXISTS command_outputs (
    id TEXT PRIMARY KEY,
    command_id TEXT NOT NULL,
    full_output TEXT NOT NULL,
    output_type TEXT NOT NULL,  -- text, compressed
    truncated INTEGER NOT NULL DEFAULT 0,
    timestamp_ms INTEGER NOT NULL,
    FOREIGN KEY(command_id) REFERENCES command_history(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_outputs_command ON command_outputs(command_id);

-- Rolling per-command statistics
CREATE TABLE IF NOT EXISTS command_usage (
    command TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    usage_count INTEGER NOT NULL,
    last_used_ms INTEGER NOT NULL,
    success_rate REAL NOT NULL,
    average_execution_time_ms REAL NOT NULL,
    total_execution_time_ms INTEGER NOT NULL
) WITHOUT ROWID;
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
