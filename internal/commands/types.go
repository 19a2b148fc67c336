// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category groups commands for help display and filtering.
type Category int

const (
	CategorySystem Category = iota
	CategoryNetwork
	CategoryFiles
	CategoryApps
	CategoryUtility
	CategoryHelp
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategorySystem,
	CategoryNetwork,
	CategoryFiles,
	CategoryApps,
	CategoryUtility,
	CategoryHelp,
}

var categoryInfo = map[Category]struct {
	key   string
	name  string
	color string
}{
	CategorySystem:  {"SYSTEM", "System", "#4FC3F7"},
	CategoryNetwork: {"NETWORK", "Network", "#81C784"},
	CategoryFiles:   {"FILES", "Files", "#FFB74D"},
	CategoryApps:    {"APPS", "Apps", "#BA68C8"},
	CategoryUtility: {"UTILITY", "Utility", "#90A4AE"},
	CategoryHelp:    {"HELP", "Help", "#FFF176"},
}

// String returns the stable identifier stored in audit records (e.g. "SYSTEM").
func (c Category) String() string {
	if info, ok := categoryInfo[c]; ok {
		return info.key
	}
	return "UNKNOWN"
}

// DisplayName returns the human-readable category name.
func (c Category) DisplayName() string {
	if info, ok := categoryInfo[c]; ok {
		return info.name
	}
	return "Unknown"
}

// Color returns the presentation color tag for the category.
func (c Category) Color() string {
	if info, ok := categoryInfo[c]; ok {
		return info.color
	}
	return "#FFFFFF"
}

// ParseCategory resolves a category from its identifier or display name,
// case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if strings.EqualFold(s, c.String()) || strings.EqualFold(s, c.DisplayName()) {
			return c, true
		}
	}
	return 0, false
}

// CategoryValues returns the lowercase category identifiers, for use as
// enum options.
func CategoryValues() []string {
	values := make([]string, 0, len(AllCategories))
	for _, c := range AllCategories {
		values = append(values, strings.ToLower(c.String()))
	}
	return values
}

// =============================================================================
// PARAMETER TYPES
// =============================================================================

// ParameterType determines how a bound value is validated.
type ParameterType int

const (
	TypeString ParameterType = iota
	TypeInteger
	TypeBoolean
	TypeEnum
	TypePath
	TypeIPAddress
	TypeMACAddress
	TypePackageName
	TypeURL
)

var parameterTypeNames = []string{
	"STRING",
	"INTEGER",
	"BOOLEAN",
	"ENUM",
	"PATH",
	"IP_ADDRESS",
	"MAC_ADDRESS",
	"PACKAGE_NAME",
	"URL",
}

func (t ParameterType) String() string {
	if int(t) >= 0 && int(t) < len(parameterTypeNames) {
		return parameterTypeNames[t]
	}
	return "UNKNOWN"
}

// ParseParameterType resolves a type from its identifier (e.g. "IP_ADDRESS").
func ParseParameterType(s string) (ParameterType, bool) {
	for i, name := range parameterTypeNames {
		if strings.EqualFold(s, name) {
			return ParameterType(i), true
		}
	}
	return TypeString, false
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Executor runs a command body. The context is forwarded untouched by the
// engine; params holds bound flag values and args the leftover positionals.
// An executor may block on I/O.
type Executor func(ctx context.Context, params map[string]string, args []string) (*CommandResult, error)

// CommandParameter declares a named flag a command accepts.
type CommandParameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool

	// Default is applied when the parameter is optional and not supplied.
	// HasDefault distinguishes an empty default from no default.
	Default    string
	HasDefault bool

	// Options is the allowed-value set for TypeEnum, also offered by
	// autocomplete for any type.
	Options []string

	// Validator runs after the built-in type check.
	Validator func(value string) bool
}

// CommandDefinition is the immutable description of a registered command.
type CommandDefinition struct {
	Name                string
	Category            Category
	Description         string
	Usage               string
	Examples            []string
	Parameters          []CommandParameter
	Aliases             []string
	RequiredPermissions []string
	MinPlatformVersion  int
	Executor            Executor
}

// Parameter returns the declared parameter with the given name.
func (d *CommandDefinition) Parameter(name string) (CommandParameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return CommandParameter{}, false
}

// =============================================================================
// PARSED COMMAND
// =============================================================================

// ParsedCommand is the structured form of one invocation.
type ParsedCommand struct {
	// CommandName is the canonical, alias-resolved name.
	CommandName string

	// SubCommand is the first non-flag token, if any.
	SubCommand string

	// Parameters maps parameter name to value; a repeated flag keeps the
	// last value.
	Parameters map[string]string

	// Arguments are the positional tokens left over after the sub-command.
	Arguments []string

	// RawInput is the original input string.
	RawInput string

	def *CommandDefinition
}

// Param returns the bound value for name.
func (p *ParsedCommand) Param(name string) (string, bool) {
	v, ok := p.Parameters[name]
	return v, ok
}

// Definition returns the definition the command line resolved to.
func (p *ParsedCommand) Definition() *CommandDefinition {
	return p.def
}

// =============================================================================
// RESULTS
// =============================================================================

// CommandResult is the outcome of one invocation.
type CommandResult struct {
	Success       bool
	Output        string
	ExecutionTime time.Duration
	Data          map[string]any
	Suggestions   []string
}

// Success builds a successful result.
func Success(output string) *CommandResult {
	return &CommandResult{Success: true, Output: output}
}

// Failure builds a failed result.
func Failure(output string) *CommandResult {
	return &CommandResult{Success: false, Output: output}
}

// WithData attaches a structured value and returns the result.
func (r *CommandResult) WithData(key string, value any) *CommandResult {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// CommandSuggestion is a ranked search hit.
type CommandSuggestion struct {
	Text        string
	Description string
	Category    Category
	Score       int
}
