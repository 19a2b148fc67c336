// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input or a parameter that failed
// validation.
type ValidationError struct {
	Command   string
	Parameter string
	Value     string
	Message   string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Parameter != "" {
		msg += " for parameter '" + e.Parameter + "'"
	}
	if e.Value != "" {
		msg += " (got: " + e.Value + ")"
	}
	if e.Command != "" {
		msg = e.Command + ": " + msg
	}
	return msg
}

// NotFoundError reports a command name that resolves to nothing.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Name)
}

// PermissionError reports permissions that are required but not granted.
// RequiredVersion is set instead when the platform is too old.
type PermissionError struct {
	Command         string
	Missing         []string
	RequiredVersion int
}

func (e *PermissionError) Error() string {
	if e.RequiredVersion > 0 && len(e.Missing) == 0 {
		return fmt.Sprintf("%s requires platform version %d or newer", e.Command, e.RequiredVersion)
	}
	return fmt.Sprintf("%s: missing permissions: %s", e.Command, strings.Join(e.Missing, ", "))
}

// ExecutionError wraps a failure raised by a command body.
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return e.Command + ": execution failed"
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newValidationError(command, param, value, message string) *ValidationError {
	return &ValidationError{
		Command:   command,
		Parameter: param,
		Value:     value,
		Message:   message,
	}
}
