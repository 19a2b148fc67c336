// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console is the interactive surface of deskshell: a line-editing
// REPL on a terminal and a plain line reader when input is piped.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/engine"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/util"
)

// DefaultPrompt is shown when Options.Prompt is empty.
const DefaultPrompt = "deskshell> "

// Shell is the part of the engine the console drives.
type Shell interface {
	Execute(ctx context.Context, rawInput, sessionID string) *commands.CommandResult
	Suggest(partialInput string) []string
}

// Options configures a console run.
type Options struct {
	// In and Out default to stdin and stdout. The line editor is only used
	// when both are the process terminal.
	In  io.Reader
	Out io.Writer

	Prompt      string
	HistoryFile string
	Color       string
	SessionID   string
}

func (o *Options) setDefaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Prompt == "" {
		o.Prompt = DefaultPrompt
	}
	if o.Color == "" {
		o.Color = ColorAuto
	}
	if o.SessionID == "" {
		o.SessionID = engine.NewSessionID()
	}
}

// interactive reports whether both ends are the process terminal.
func (o *Options) interactive() bool {
	in, ok := o.In.(*os.File)
	if !ok || in != os.Stdin || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := o.Out.(*os.File)
	return ok && out == os.Stdout && term.IsTerminal(int(out.Fd()))
}

// =============================================================================
// RUN
// =============================================================================

// Run reads command lines until exit, EOF or cancellation.
func Run(ctx context.Context, sh Shell, opts Options) error {
	opts.setDefaults()
	st := newStyles(opts.Out, ColorProfile(opts.Color, opts.Out))

	logging.InfoLog.Printf("CONSOLE_START | session=%s", opts.SessionID)
	defer logging.InfoLog.Printf("CONSOLE_STOP | session=%s", opts.SessionID)

	if opts.interactive() {
		return runInteractive(ctx, sh, opts, st)
	}
	return runPiped(ctx, sh, opts, st)
}

func runInteractive(ctx context.Context, sh Shell, opts Options, st *styles) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(Completer(sh))

	loadHistory(line, opts.HistoryFile)
	defer saveHistory(line, opts.HistoryFile)

	prompt := st.prompt.Render(opts.Prompt)
	screen := termenv.NewOutput(opts.Out)
	fmt.Fprintln(opts.Out, st.hint.Render("Type 'help' for commands, 'exit' to leave."))

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(opts.Out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if isExit(input) {
			return nil
		}

		res := sh.Execute(ctx, input, opts.SessionID)
		if cleared, _ := res.Data[engine.DataClear].(bool); cleared && res.Success {
			screen.ClearScreen()
			continue
		}
		st.render(opts.Out, res)
	}
}

// runPiped executes one command per input line without echoing a prompt.
func runPiped(ctx context.Context, sh Shell, opts Options, st *styles) error {
	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if isExit(input) {
			return nil
		}

		res := sh.Execute(ctx, input, opts.SessionID)
		if cleared, _ := res.Data[engine.DataClear].(bool); cleared {
			continue
		}
		st.render(opts.Out, res)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// RunOnce executes a single command line, renders it to out and reports
// whether it succeeded.
func RunOnce(ctx context.Context, sh Shell, input string, opts Options) bool {
	opts.setDefaults()
	st := newStyles(opts.Out, ColorProfile(opts.Color, opts.Out))
	res := sh.Execute(ctx, input, opts.SessionID)
	st.render(opts.Out, res)
	return res.Success
}

func isExit(input string) bool {
	return input == "exit" || input == "quit"
}

// =============================================================================
// COMPLETION
// =============================================================================

// Completer adapts Shell.Suggest to liner, which replaces the whole line:
// each suggestion is joined to the text before the token being completed.
func Completer(sh Shell) liner.Completer {
	return func(line string) []string {
		if line != "" && strings.TrimRight(line, " \t") != line {
			return nil
		}
		head := ""
		if i := strings.LastIndexAny(line, " \t"); i >= 0 {
			head = line[:i+1]
		}

		suggestions := sh.Suggest(line)
		out := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, head+s)
		}
		return out
	}
}

// =============================================================================
// HISTORY FILE
// =============================================================================

func loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		logging.WarningLog.Printf("HISTORY_READ_FAILED | path=%s err=%v", path, err)
	}
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	err := util.WriteFileAtomic(path, 0600, func(w io.Writer) error {
		_, err := line.WriteHistory(w)
		return err
	})
	if err != nil {
		logging.WarningLog.Printf("HISTORY_WRITE_FAILED | path=%s err=%v", path, err)
	}
}
