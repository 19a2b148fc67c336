// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"log"
	"time"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/output"
	"github.com/jeranaias/deskshell/internal/storage"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the audit store. Without one nothing is persisted.
func WithStore(store storage.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithOracle sets the permission oracle. Without one only commands that
// require no permissions can run.
func WithOracle(oracle commands.PermissionOracle) Option {
	return func(e *Engine) {
		e.oracle = oracle
	}
}

// WithOutputManager sets the output sizing policy.
func WithOutputManager(m *output.Manager) Option {
	return func(e *Engine) {
		e.output = m
	}
}

// WithPlatformVersion sets the version compared against
// CommandDefinition.MinPlatformVersion.
func WithPlatformVersion(v int) Option {
	return func(e *Engine) {
		e.platformVersion = v
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sends audit and statistics failures to l instead of the
// shared warning log.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithVersion sets the string reported by the version command.
func WithVersion(v string) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// WithRegistry uses an existing registry instead of a new one. Built-ins
// are still registered into it.
func WithRegistry(r *commands.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}
