// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; concurrent sessions queue on the single conn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// =============================================================================
// WRITES
// =============================================================================

// SaveCommand inserts a history record, assigning an ID if empty.
func (s *SQLite) SaveCommand(ctx context.Context, rec *CommandRecord) error {
	ensureCommandDefaults(rec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_history (
			id, command, command_type, sub_command, arguments, session_id,
			timestamp_ms, execution_time_ms, success, output_preview, full_output_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Command, rec.CommandType, rec.SubCommand, rec.Arguments, rec.SessionID,
		rec.Timestamp.UnixMilli(), rec.ExecutionTime.Milliseconds(), boolToInt(rec.Success),
		rec.OutputPreview, nullString(rec.FullOutputID),
	)
	if err != nil {
		return fmt.Errorf("save command %s: %w", rec.Command, err)
	}
	return nil
}

// SaveOutput inserts a full-output record linked to an existing command.
func (s *SQLite) SaveOutput(ctx context.Context, rec *OutputRecord) error {
	ensureOutputDefaults(rec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_outputs (id, command_id, full_output, output_type, truncated, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CommandID, rec.FullOutput, rec.OutputType, boolToInt(rec.Truncated),
		rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save output for %s: %w", rec.CommandID, err)
	}
	return nil
}

// LinkOutput sets the full_output_id of an existing history record.
func (s *SQLite) LinkOutput(ctx context.Context, commandID, outputID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE command_history SET full_output_id = ? WHERE id = ?`, outputID, commandID)
	if err != nil {
		return fmt.Errorf("link output for %s: %w", commandID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("link output for %s: %w", commandID, err)
	}
	if n == 0 {
		return fmt.Errorf("link output for %s: %w", commandID, ErrNotFound)
	}
	return nil
}

// UpsertUsage writes the usage summary for rec.Command.
func (s *SQLite) UpsertUsage(ctx context.Context, rec *UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_usage (
			command, category, usage_count, last_used_ms, success_rate,
			average_execution_time_ms, total_execution_time_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(command) DO UPDATE SET
			category = excluded.category,
			usage_count = excluded.usage_count,
			last_used_ms = excluded.last_used_ms,
			success_rate = excluded.success_rate,
			average_execution_time_ms = excluded.average_execution_time_ms,
			total_execution_time_ms = excluded.total_execution_time_ms`,
		rec.Command, rec.Category, rec.UsageCount, rec.LastUsed.UnixMilli(), rec.SuccessRate,
		durationToMs(rec.AverageExecutionTime), rec.TotalExecutionTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("upsert usage for %s: %w", rec.Command, err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

const commandColumns = `id, command, command_type, sub_command, arguments, session_id,
	timestamp_ms, execution_time_ms, success, output_preview, full_output_id`

// RecentCommands returns the newest history records first.
func (s *SQLite) RecentCommands(ctx context.Context, sessionID string, limit int) ([]CommandRecord, error) {
	query := `SELECT ` + commandColumns + ` FROM command_history`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY timestamp_ms DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []CommandRecord
	for rows.Next() {
		rec, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Command returns the history record with the given id.
func (s *SQLite) Command(ctx context.Context, id string) (*CommandRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commandColumns+` FROM command_history WHERE id = ?`, id)
	rec, err := scanCommand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Output returns the full output stored for a command.
func (s *SQLite) Output(ctx context.Context, commandID string) (*OutputRecord, error) {
	var rec OutputRecord
	var truncated int
	var ts int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, command_id, full_output, output_type, truncated, timestamp_ms
		FROM command_outputs WHERE command_id = ?`, commandID,
	).Scan(&rec.ID, &rec.CommandID, &rec.FullOutput, &rec.OutputType, &truncated, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query output: %w", err)
	}
	rec.Truncated = truncated != 0
	rec.Timestamp = time.UnixMilli(ts)
	return &rec, nil
}

const usageColumns = `command, category, usage_count, last_used_ms, success_rate,
	average_execution_time_ms, total_execution_time_ms`

// Usage returns the usage summary for command.
func (s *SQLite) Usage(ctx context.Context, command string) (*UsageRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+usageColumns+` FROM command_usage WHERE command = ?`, command)
	rec, err := scanUsage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// AllUsage returns every usage summary, most used first.
func (s *SQLite) AllUsage(ctx context.Context) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM command_usage ORDER BY usage_count DESC, command ASC`)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		rec, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanCommand(row scanner) (*CommandRecord, error) {
	var rec CommandRecord
	var subCommand, arguments, preview, fullOutputID sql.NullString
	var ts, execMs int64
	var success int
	err := row.Scan(&rec.ID, &rec.Command, &rec.CommandType, &subCommand, &arguments, &rec.SessionID,
		&ts, &execMs, &success, &preview, &fullOutputID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan command: %w", err)
	}
	rec.SubCommand = subCommand.String
	rec.Arguments = arguments.String
	rec.OutputPreview = preview.String
	rec.FullOutputID = fullOutputID.String
	rec.Timestamp = time.UnixMilli(ts)
	rec.ExecutionTime = time.Duration(execMs) * time.Millisecond
	rec.Success = success != 0
	return &rec, nil
}

func scanUsage(row scanner) (*UsageRecord, error) {
	var rec UsageRecord
	var lastUsed, totalMs int64
	var avgMs float64
	err := row.Scan(&rec.Command, &rec.Category, &rec.UsageCount, &lastUsed, &rec.SuccessRate, &avgMs, &totalMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan usage: %w", err)
	}
	rec.LastUsed = time.UnixMilli(lastUsed)
	rec.AverageExecutionTime = msToDuration(avgMs)
	rec.TotalExecutionTime = time.Duration(totalMs) * time.Millisecond
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func durationToMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
