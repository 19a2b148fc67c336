// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/engine"
	"github.com/jeranaias/deskshell/internal/util"
)

// Color modes accepted by Options.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// =============================================================================
// COLOR PROFILE
// =============================================================================

// ColorProfile picks the termenv profile for w. NO_COLOR wins over "auto";
// anything that is not a terminal gets plain text.
func ColorProfile(mode string, w io.Writer) termenv.Profile {
	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		return termenv.ANSI256
	}
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// =============================================================================
// STYLES
// =============================================================================

type styles struct {
	renderer *lipgloss.Renderer
	prompt   lipgloss.Style
	errText  lipgloss.Style
	hint     lipgloss.Style
	name     lipgloss.Style
}

func newStyles(w io.Writer, profile termenv.Profile) *styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &styles{
		renderer: r,
		prompt:   r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true), // Cyan
		errText:  r.NewStyle().Foreground(lipgloss.Color("196")),           // Red
		hint:     r.NewStyle().Foreground(lipgloss.Color("242")),           // Dim
		name:     r.NewStyle().Bold(true),
	}
}

func (s *styles) category(c commands.Category) string {
	return s.renderer.NewStyle().
		Foreground(lipgloss.Color(c.Color())).
		Render("[" + c.DisplayName() + "]")
}

// =============================================================================
// RESULT RENDERING
// =============================================================================

// render writes one command result.
func (s *styles) render(w io.Writer, res *commands.CommandResult) {
	if hits, ok := res.Data["results"].([]commands.CommandSuggestion); ok && res.Success && len(hits) > 0 {
		s.renderSearch(w, hits)
		return
	}

	if !res.Success {
		if res.Output != "" {
			fmt.Fprintln(w, renderLines(s.errText, res.Output))
		}
		if len(res.Suggestions) > 0 {
			fmt.Fprintln(w, s.hint.Render("Suggestions: "+strings.Join(res.Suggestions, ", ")))
		}
		return
	}

	if res.Output == "" {
		return
	}
	if noNewline, _ := res.Data[engine.DataNoNewline].(bool); noNewline {
		fmt.Fprint(w, res.Output)
		return
	}
	fmt.Fprintln(w, res.Output)
}

// renderSearch lays out search hits with their category tag in the
// category's color.
func (s *styles) renderSearch(w io.Writer, hits []commands.CommandSuggestion) {
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Text
	}
	width := util.MaxWidth(names...) + 2

	for _, h := range hits {
		fmt.Fprintf(w, "%s%s %s\n",
			s.name.Render(util.PadRight(h.Text, width)), s.category(h.Category), h.Description)
	}
}

// renderLines styles each line separately so lipgloss does not pad short
// lines to the width of the longest.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return strings.Join(lines, "\n")
}
