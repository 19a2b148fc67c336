// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/output"
	"github.com/jeranaias/deskshell/internal/permissions"
	"github.com/jeranaias/deskshell/internal/storage"
)

// UnknownCommandType is recorded when the input never resolved to a command.
const UnknownCommandType = "UNKNOWN"

// DefaultVersion is reported by the version command unless overridden.
const DefaultVersion = "0.1.0"

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the top-level command orchestrator. It is safe for concurrent
// use by any number of sessions.
type Engine struct {
	registry *commands.Registry
	parser   *commands.Parser
	store    storage.Store
	oracle   commands.PermissionOracle
	output   *output.Manager

	platformVersion int
	version         string
	now             func() time.Time
	logger          *log.Logger
	failures        *logging.Throttled

	statsMu sync.Mutex
	stats   map[string]storage.UsageRecord
}

// New creates an engine and registers the built-in commands.
func New(opts ...Option) *Engine {
	e := &Engine{
		oracle:          permissions.NewGrantSet(nil),
		platformVersion: 1,
		version:         DefaultVersion,
		now:             time.Now,
		stats:           make(map[string]storage.UsageRecord),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		e.registry = commands.NewRegistry()
	}
	if e.output == nil {
		e.output = output.NewManager(output.DefaultPolicy())
	}
	e.parser = commands.NewParser(e.registry)
	e.failures = logging.NewThrottled(e.logger, time.Second, 5)

	e.registerBuiltins()
	return e
}

// Registry returns the command catalog.
func (e *Engine) Registry() *commands.Registry {
	return e.registry
}

// Register adds a command to the catalog.
func (e *Engine) Register(def *commands.CommandDefinition) error {
	return e.registry.Register(def)
}

// =============================================================================
// EXECUTE
// =============================================================================

// Execute runs one command line for a session and always returns a result.
// The result's ExecutionTime is the measured wall time of the whole call up
// to the audit write.
func (e *Engine) Execute(ctx context.Context, rawInput, sessionID string) *commands.CommandResult {
	start := e.now()
	ctx = WithSessionID(ctx, sessionID)

	var def *commands.CommandDefinition
	parsed, err := e.parser.Parse(rawInput)

	var result *commands.CommandResult
	if err != nil {
		result = e.failure(err)
	} else {
		def = parsed.Definition()
		result = e.invoke(ctx, def, parsed)
	}

	elapsed := e.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	result.ExecutionTime = elapsed

	// Persistence must outlive a cancelled caller.
	persistCtx := context.WithoutCancel(ctx)
	e.audit(persistCtx, rawInput, sessionID, start, parsed, def, result)
	if def != nil {
		e.recordUsage(persistCtx, def, result.Success, elapsed)
	}
	return result
}

// invoke checks the platform version and permissions, then runs the body.
func (e *Engine) invoke(ctx context.Context, def *commands.CommandDefinition, parsed *commands.ParsedCommand) *commands.CommandResult {
	if def.MinPlatformVersion > e.platformVersion {
		return e.failure(&commands.PermissionError{
			Command:         def.Name,
			RequiredVersion: def.MinPlatformVersion,
		})
	}
	if missing := e.registry.PermissionGap(ctx, e.oracle, def); len(missing) > 0 {
		return e.failure(&commands.PermissionError{Command: def.Name, Missing: missing})
	}

	res, err := runExecutor(ctx, def, parsed)
	if err != nil {
		return e.failure(&commands.ExecutionError{Command: def.Name, Err: err})
	}
	if res == nil {
		return e.failure(&commands.ExecutionError{Command: def.Name, Err: errors.New(def.Name + ": command returned no result")})
	}

	out := *res
	return &out
}

// runExecutor calls the body, turning a panic into an error. The sub-command
// is passed as the first positional argument.
func runExecutor(ctx context.Context, def *commands.CommandDefinition, parsed *commands.ParsedCommand) (res *commands.CommandResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", def.Name, r)
		}
	}()

	args := parsed.Arguments
	if parsed.SubCommand != "" {
		args = append([]string{parsed.SubCommand}, parsed.Arguments...)
	}
	params := make(map[string]string, len(parsed.Parameters))
	for k, v := range parsed.Parameters {
		params[k] = v
	}
	return def.Executor(ctx, params, args)
}

func (e *Engine) failure(err error) *commands.CommandResult {
	res := commands.Failure(e.parser.FormatError(err))

	var notFound *commands.NotFoundError
	if errors.As(err, &notFound) {
		res.Suggestions = e.parser.DidYouMean(notFound.Name)
	}
	return res
}

// =============================================================================
// AUDIT
// =============================================================================

func (e *Engine) audit(ctx context.Context, rawInput, sessionID string, start time.Time,
	parsed *commands.ParsedCommand, def *commands.CommandDefinition, result *commands.CommandResult) {
	if e.store == nil {
		return
	}

	rec := &storage.CommandRecord{
		ID:            storage.NewID(),
		Command:       rawInput,
		CommandType:   UnknownCommandType,
		SessionID:     sessionID,
		Timestamp:     start,
		ExecutionTime: result.ExecutionTime,
		Success:       result.Success,
	}
	if parsed != nil && def != nil {
		rec.Command = def.Name
		rec.CommandType = def.Category.String()
		rec.SubCommand = parsed.SubCommand
		rec.Arguments = strings.Join(parsed.Arguments, " ")
	}

	processed := e.output.Process(result.Output)
	rec.OutputPreview = processed.Preview

	if err := e.store.SaveCommand(ctx, rec); err != nil {
		e.failures.Printf("AUDIT_WRITE_FAILED | command=%s session=%s err=%v", rec.Command, sessionID, err)
		return
	}
	if !processed.HasFullOutput() {
		return
	}

	// The history row is linked only once the full output is stored.
	out := &storage.OutputRecord{
		ID:         storage.NewID(),
		CommandID:  rec.ID,
		FullOutput: processed.FullOutput,
		OutputType: processed.OutputType(),
		Truncated:  processed.Truncated,
		Timestamp:  start,
	}
	if err := e.store.SaveOutput(ctx, out); err != nil {
		e.failures.Printf("AUDIT_OUTPUT_WRITE_FAILED | command=%s id=%s err=%v", rec.Command, rec.ID, err)
		return
	}
	if err := e.store.LinkOutput(ctx, rec.ID, out.ID); err != nil {
		e.failures.Printf("AUDIT_OUTPUT_LINK_FAILED | command=%s id=%s err=%v", rec.Command, rec.ID, err)
	}
}

// =============================================================================
// PASSTHROUGHS
// =============================================================================

// Suggest completes a partially typed command line.
func (e *Engine) Suggest(partialInput string) []string {
	return e.parser.Suggest(partialInput)
}

// Search ranks commands against query.
func (e *Engine) Search(query string) []commands.CommandSuggestion {
	return e.registry.Search(query)
}

// Help renders help for a command name or alias.
func (e *Engine) Help(nameOrAlias string) string {
	return e.registry.HelpText(nameOrAlias)
}

// Commands lists every registered command.
func (e *Engine) Commands() []*commands.CommandDefinition {
	return e.registry.All()
}

// CommandsByCategory lists the commands in cat.
func (e *Engine) CommandsByCategory(cat commands.Category) []*commands.CommandDefinition {
	return e.registry.ByCategory(cat)
}
