// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxDidYouMean caps the suggestions appended to a not-found message.
const maxDidYouMean = 3

// =============================================================================
// PARSER
// =============================================================================

// Parser turns raw command lines into validated ParsedCommands, resolving
// names against a Registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser backed by registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse tokenizes raw, resolves the command, binds flags and positionals,
// validates them against the definition and fills declared defaults.
func (p *Parser) Parse(raw string) (*ParsedCommand, error) {
	tokens, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}

	def, ok := p.registry.Resolve(tokens[0])
	if !ok {
		return nil, &NotFoundError{Name: tokens[0]}
	}

	parsed := &ParsedCommand{
		CommandName: def.Name,
		Parameters:  make(map[string]string),
		RawInput:    raw,
		def:         def,
	}
	if err := classify(def, tokens[1:], parsed); err != nil {
		return nil, err
	}
	if err := validateParameters(def, parsed.Parameters); err != nil {
		return nil, err
	}

	for _, param := range def.Parameters {
		if _, set := parsed.Parameters[param.Name]; !set && !param.Required && param.HasDefault {
			parsed.Parameters[param.Name] = param.Default
		}
	}
	return parsed, nil
}

func classify(def *CommandDefinition, tokens []string, parsed *ParsedCommand) error {
	haveSub := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case strings.HasPrefix(tok, "--") && len(tok) > 2:
			body := tok[2:]
			if name, value, found := strings.Cut(body, "="); found {
				if name == "" {
					return newValidationError(def.Name, "", tok, "malformed flag")
				}
				parsed.Parameters[name] = value
				continue
			}
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
				parsed.Parameters[body] = tokens[i+1]
				i++
				continue
			}
			parsed.Parameters[body] = "true"

		case isShortFlag(tok):
			parsed.Parameters[tok[1:]] = "true"

		case !haveSub:
			parsed.SubCommand = tok
			haveSub = true

		default:
			parsed.Arguments = append(parsed.Arguments, tok)
		}
	}
	return nil
}

func isShortFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	r, size := utf8.DecodeRuneInString(tok[1:])
	return size == len(tok)-1 && unicode.IsLetter(r)
}

// validateParameters checks required presence, then unknown names, then
// per-type and custom validation, stopping at the first failure.
func validateParameters(def *CommandDefinition, bound map[string]string) error {
	for _, param := range def.Parameters {
		if _, ok := bound[param.Name]; param.Required && !ok {
			return newValidationError(def.Name, param.Name, "", "missing required parameter")
		}
	}

	names := make([]string, 0, len(bound))
	for name := range bound {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := def.Parameter(name); !ok {
			return newValidationError(def.Name, name, "", "unknown parameter")
		}
	}

	for _, param := range def.Parameters {
		value, ok := bound[param.Name]
		if !ok {
			continue
		}
		if reason, valid := ValidateValue(param, value); !valid {
			return newValidationError(def.Name, param.Name, value, reason)
		}
	}
	return nil
}

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits a command line on whitespace, honouring single and double
// quotes. Quotes are stripped; a quote of the other kind inside an active
// quote is literal. Empty input and an unclosed quote are errors.
func Tokenize(input string) ([]string, error) {
	tokens, unclosed := scanTokens(input)
	if unclosed {
		return nil, newValidationError("", "", "", "unclosed quote")
	}
	if len(tokens) == 0 {
		return nil, newValidationError("", "", "", "empty input")
	}
	return tokens, nil
}

func scanTokens(input string) ([]string, bool) {
	input = strings.TrimSpace(norm.NFC.String(input))

	var tokens []string
	var current strings.Builder
	var quote rune
	pending := false

	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}

	for _, r := range input {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			pending = true
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	unclosed := quote != 0
	flush()
	return tokens, unclosed
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// Suggest completes a partially typed command line. An unclosed quote while
// typing is tolerated.
func (p *Parser) Suggest(partialInput string) []string {
	tokens, _ := scanTokens(partialInput)
	if len(tokens) <= 1 {
		return p.registry.Autocomplete(partialInput)
	}

	last := tokens[len(tokens)-1]
	if !strings.HasPrefix(last, "--") {
		return p.registry.Autocomplete(partialInput)
	}

	def, ok := p.registry.Resolve(tokens[0])
	if !ok {
		return nil
	}

	partial := strings.ToLower(last[2:])
	if name, valuePrefix, found := strings.Cut(partial, "="); found {
		param, ok := def.Parameter(name)
		if !ok {
			return nil
		}
		var out []string
		for _, opt := range param.Options {
			if strings.HasPrefix(strings.ToLower(opt), valuePrefix) {
				out = append(out, "--"+param.Name+"="+opt)
			}
		}
		return out
	}

	var out []string
	for _, param := range def.Parameters {
		if strings.HasPrefix(strings.ToLower(param.Name), partial) {
			out = append(out, "--"+param.Name)
		}
	}
	return out
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatError renders err as user-facing text.
func (p *Parser) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var notFound *NotFoundError
	var validation *ValidationError
	var permission *PermissionError
	var execution *ExecutionError

	switch {
	case errors.As(err, &notFound):
		var sb strings.Builder
		sb.WriteString("Command not found: " + notFound.Name)
		if hits := p.DidYouMean(notFound.Name); len(hits) > 0 {
			sb.WriteString("\nDid you mean: " + strings.Join(hits, ", ") + "?")
		}
		sb.WriteString("\nType 'help' to list available commands.")
		return sb.String()

	case errors.As(err, &validation):
		msg := "Invalid input: " + validation.Error()
		if validation.Command != "" {
			if def, ok := p.registry.Lookup(validation.Command); ok && def.Usage != "" {
				msg += "\nUsage: " + def.Usage
			}
		}
		return msg

	case errors.As(err, &permission):
		if permission.RequiredVersion > 0 && len(permission.Missing) == 0 {
			return "Not supported: " + permission.Error()
		}
		return "Permission denied: " + permission.Command + " requires " + strings.Join(permission.Missing, ", ")

	case errors.As(err, &execution):
		return execution.Error()
	}
	return "Error: " + err.Error()
}

// DidYouMean returns up to three command names resembling name.
func (p *Parser) DidYouMean(name string) []string {
	hits := p.registry.Search(name)
	if len(hits) > maxDidYouMean {
		hits = hits[:maxDidYouMean]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Text
	}
	return out
}
