// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/output"
	"github.com/jeranaias/deskshell/internal/storage"
	"github.com/jeranaias/deskshell/internal/util"
)

// DefaultHistoryLimit is the number of entries history shows by default.
const DefaultHistoryLimit = 20

// Data keys set by built-in commands.
const (
	DataClear     = "clear"
	DataNoNewline = "noNewline"
)

// =============================================================================
// REGISTRATION
// =============================================================================

func (e *Engine) registerBuiltins() {
	builtins := []*commands.CommandDefinition{
		{
			Name:        "help",
			Category:    commands.CategoryHelp,
			Description: "Show help for all commands, a command or a category",
			Usage:       "help [command|category]",
			Examples:    []string{"help", "help ping", "help network"},
			Aliases:     []string{"?", "man"},
			Executor:    e.helpCommand,
		},
		{
			Name:        "commands",
			Category:    commands.CategoryHelp,
			Description: "List available commands",
			Usage:       "commands [--category=<name>]",
			Examples:    []string{"commands", "commands --category=system"},
			Parameters: []commands.CommandParameter{{
				Name:        "category",
				Type:        commands.TypeEnum,
				Description: "Only list commands in this category",
				Options:     commands.CategoryValues(),
			}},
			Executor: e.commandsCommand,
		},
		{
			Name:        "search",
			Category:    commands.CategoryHelp,
			Description: "Search commands by name, alias or description",
			Usage:       "search <query>",
			Examples:    []string{"search net"},
			Aliases:     []string{"find"},
			Executor:    e.searchCommand,
		},
		{
			Name:        "echo",
			Category:    commands.CategoryUtility,
			Description: "Print text",
			Usage:       "echo [-n] <text...>",
			Examples:    []string{`echo "hello world"`, "echo -n no newline"},
			Parameters: []commands.CommandParameter{{
				Name:        "n",
				Type:        commands.TypeBoolean,
				Description: "Do not print a trailing newline",
			}},
			Executor: echoCommand,
		},
		{
			Name:        "clear",
			Category:    commands.CategoryUtility,
			Description: "Clear the console",
			Usage:       "clear",
			Aliases:     []string{"cls"},
			Executor:    clearCommand,
		},
		{
			Name:        "history",
			Category:    commands.CategorySystem,
			Description: "Show recent commands from this session",
			Usage:       "history [--limit=N] [--all]",
			Examples:    []string{"history", "history --limit 5"},
			Parameters: []commands.CommandParameter{
				{
					Name:        "limit",
					Type:        commands.TypeInteger,
					Description: "Number of entries to show",
					Default:     strconv.Itoa(DefaultHistoryLimit),
					HasDefault:  true,
					Validator:   positiveInt,
				},
				{
					Name:        "all",
					Type:        commands.TypeBoolean,
					Description: "Include every session",
				},
			},
			Executor: e.historyCommand,
		},
		{
			Name:        "output",
			Category:    commands.CategorySystem,
			Description: "Show the full stored output of a previous command",
			Usage:       "output <commandId>",
			Executor:    e.outputCommand,
		},
		{
			Name:        "stats",
			Category:    commands.CategorySystem,
			Description: "Show command usage statistics",
			Usage:       "stats [command]",
			Executor:    e.statsCommand,
		},
		{
			Name:        "version",
			Category:    commands.CategorySystem,
			Description: "Show the shell and platform version",
			Usage:       "version",
			Aliases:     []string{"ver"},
			Executor:    e.versionCommand,
		},
		{
			Name:        "whoami",
			Category:    commands.CategorySystem,
			Description: "Show the current session id",
			Usage:       "whoami",
			Executor:    whoamiCommand,
		},
		{
			Name:        "date",
			Category:    commands.CategoryUtility,
			Description: "Show the current date and time",
			Usage:       "date [--utc]",
			Parameters: []commands.CommandParameter{{
				Name:        "utc",
				Type:        commands.TypeBoolean,
				Description: "Show UTC instead of local time",
			}},
			Aliases:  []string{"time"},
			Executor: e.dateCommand,
		},
	}

	for _, def := range builtins {
		if err := e.registry.Register(def); err != nil {
			logging.ErrorLog.Printf("BUILTIN_REGISTER_FAILED | command=%s err=%v", def.Name, err)
		}
	}
}

func positiveInt(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}

// =============================================================================
// HELP COMMANDS
// =============================================================================

func (e *Engine) helpCommand(_ context.Context, _ map[string]string, args []string) (*commands.CommandResult, error) {
	if len(args) == 0 {
		return commands.Success(e.registry.OverallHelp()), nil
	}

	target := args[0]
	if _, ok := e.registry.Resolve(target); ok {
		return commands.Success(e.registry.HelpText(target)), nil
	}
	if cat, ok := commands.ParseCategory(target); ok {
		return commands.Success(e.registry.CategoryHelp(cat)), nil
	}

	res := commands.Failure(e.registry.HelpText(target))
	res.Suggestions = e.parser.DidYouMean(target)
	return res, nil
}

func (e *Engine) commandsCommand(_ context.Context, params map[string]string, _ []string) (*commands.CommandResult, error) {
	defs := e.registry.All()
	if name, ok := params["category"]; ok {
		cat, _ := commands.ParseCategory(name)
		defs = e.registry.ByCategory(cat)
	}

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	width := util.MaxWidth(names...) + 2

	var sb strings.Builder
	for _, d := range defs {
		sb.WriteString(util.PadRight(d.Name, width) + "[" + d.Category.DisplayName() + "] " + d.Description + "\n")
	}
	return commands.Success(strings.TrimRight(sb.String(), "\n")).WithData("commands", names), nil
}

func (e *Engine) searchCommand(_ context.Context, _ map[string]string, args []string) (*commands.CommandResult, error) {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return commands.Failure("Usage: search <query>"), nil
	}

	hits := e.registry.Search(query)
	if len(hits) == 0 {
		return commands.Success(fmt.Sprintf("No commands match '%s'.", query)).WithData("results", hits), nil
	}

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Text
	}
	width := util.MaxWidth(names...) + 2

	var sb strings.Builder
	for _, h := range hits {
		sb.WriteString(fmt.Sprintf("%s%3d  %s\n", util.PadRight(h.Text, width), h.Score, h.Description))
	}
	return commands.Success(strings.TrimRight(sb.String(), "\n")).WithData("results", hits), nil
}

// =============================================================================
// UTILITY COMMANDS
// =============================================================================

func echoCommand(_ context.Context, params map[string]string, args []string) (*commands.CommandResult, error) {
	res := commands.Success(strings.Join(args, " "))
	if commands.ParseBool(params["n"]) {
		res.WithData(DataNoNewline, true)
	}
	return res, nil
}

func clearCommand(_ context.Context, _ map[string]string, _ []string) (*commands.CommandResult, error) {
	return commands.Success("").WithData(DataClear, true), nil
}

func whoamiCommand(ctx context.Context, _ map[string]string, _ []string) (*commands.CommandResult, error) {
	id := SessionID(ctx)
	if id == "" {
		return commands.Failure("No session."), nil
	}
	return commands.Success(id).WithData("sessionId", id), nil
}

func (e *Engine) dateCommand(_ context.Context, params map[string]string, _ []string) (*commands.CommandResult, error) {
	now := e.now()
	if commands.ParseBool(params["utc"]) {
		now = now.UTC()
	}
	return commands.Success(now.Format(time.RFC1123)).WithData("unixMs", now.UnixMilli()), nil
}

func (e *Engine) versionCommand(_ context.Context, _ map[string]string, _ []string) (*commands.CommandResult, error) {
	out := fmt.Sprintf("deskshell %s (platform version %d)", e.version, e.platformVersion)
	return commands.Success(out).
		WithData("version", e.version).
		WithData("platformVersion", e.platformVersion), nil
}

// =============================================================================
// AUDIT COMMANDS
// =============================================================================

var errNoStore = errors.New("no audit store configured")

func (e *Engine) historyCommand(ctx context.Context, params map[string]string, _ []string) (*commands.CommandResult, error) {
	if e.store == nil {
		return nil, errNoStore
	}

	limit, err := strconv.Atoi(params["limit"])
	if err != nil || limit <= 0 {
		limit = DefaultHistoryLimit
	}
	session := SessionID(ctx)
	if commands.ParseBool(params["all"]) {
		session = ""
	}

	records, err := e.store.RecentCommands(ctx, session, limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(records) == 0 {
		return commands.Success("No commands recorded yet."), nil
	}

	var sb strings.Builder
	// Oldest first, like a shell history.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		status := "ok  "
		if !r.Success {
			status = "FAIL"
		}
		line := strings.TrimSpace(strings.Join([]string{r.Command, r.SubCommand, r.Arguments}, " "))
		sb.WriteString(fmt.Sprintf("%s  %s  %-6s %s  [%s]\n",
			r.Timestamp.Format("15:04:05"), status, formatDuration(r.ExecutionTime), line, r.ID))
	}
	return commands.Success(strings.TrimRight(sb.String(), "\n")).WithData("count", len(records)), nil
}

func (e *Engine) outputCommand(ctx context.Context, _ map[string]string, args []string) (*commands.CommandResult, error) {
	if e.store == nil {
		return nil, errNoStore
	}
	if len(args) == 0 {
		return commands.Failure("Usage: output <commandId>"), nil
	}
	id := args[0]

	rec, err := e.store.Output(ctx, id)
	if err == nil {
		return commands.Success(output.Restore(rec.FullOutput, rec.OutputType)).
			WithData("truncated", rec.Truncated), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read output: %w", err)
	}

	// Short outputs live entirely in the preview.
	cmd, err := e.store.Command(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return commands.Failure(fmt.Sprintf("No command with id %s.", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read command: %w", err)
	}
	// A preview longer than the preview length was cut, so the full text
	// should have been stored.
	if cmd.FullOutputID != "" || util.RuneLen(cmd.OutputPreview) > e.output.Policy().PreviewLength {
		return commands.Failure(fmt.Sprintf("Full output of %s was not stored. Preview:\n%s", id, cmd.OutputPreview)), nil
	}
	return commands.Success(cmd.OutputPreview), nil
}

func (e *Engine) statsCommand(_ context.Context, _ map[string]string, args []string) (*commands.CommandResult, error) {
	if len(args) > 0 {
		name := args[0]
		if def, ok := e.registry.Resolve(name); ok {
			name = def.Name
		}
		rec, ok := e.Stats(name)
		if !ok {
			return commands.Failure(fmt.Sprintf("No statistics for %s.", name)), nil
		}
		return commands.Success(formatUsage(rec)).WithData("usage", rec), nil
	}

	all := e.AllStats()
	if len(all) == 0 {
		return commands.Success("No statistics yet."), nil
	}
	lines := make([]string, len(all))
	for i, rec := range all {
		lines[i] = formatUsage(rec)
	}
	return commands.Success(strings.Join(lines, "\n")).WithData("usage", all), nil
}

func formatUsage(r storage.UsageRecord) string {
	return fmt.Sprintf("%s: %d runs, %.0f%% success, avg %s, total %s",
		r.Command, r.UsageCount, r.SuccessRate*100,
		formatDuration(r.AverageExecutionTime), formatDuration(r.TotalExecutionTime))
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}
