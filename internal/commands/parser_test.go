// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func testParser(t *testing.T) *Parser {
	t.Helper()
	r := NewRegistry()
	mustRegister(t, r, &CommandDefinition{
		Name:     "commands",
		Category: CategoryHelp,
		Usage:    "commands [--category=<name>]",
		Parameters: []CommandParameter{
			{Name: "category", Type: TypeEnum, Options: []string{"system", "network"}},
		},
	})
	mustRegister(t, r, &CommandDefinition{
		Name:     "echo",
		Category: CategoryUtility,
		Parameters: []CommandParameter{
			{Name: "v", Type: TypeBoolean},
			{Name: "n", Type: TypeBoolean},
		},
	})
	mustRegister(t, r, &CommandDefinition{
		Name:     "ping",
		Category: CategoryNetwork,
		Aliases:  []string{"p"},
		Parameters: []CommandParameter{
			{Name: "count", Type: TypeInteger, Default: "4", HasDefault: true},
			{Name: "host", Type: TypeIPAddress},
			{Name: "v", Type: TypeBoolean},
		},
	})
	mustRegister(t, r, &CommandDefinition{
		Name:     "install",
		Category: CategoryApps,
		Parameters: []CommandParameter{
			{Name: "package", Type: TypePackageName, Required: true},
			{Name: "channel", Type: TypeString, Validator: func(v string) bool { return v == "stable" || v == "beta" }},
		},
	})
	return NewParser(r)
}

func mustParse(t *testing.T, p *Parser, input string) *ParsedCommand {
	t.Helper()
	parsed, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return parsed
}

// =============================================================================
// TOKENIZER TESTS
// =============================================================================

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`ping "8 8 8 8" -v`, []string{"ping", "8 8 8 8", "-v"}},
		{`echo 'single quoted'`, []string{"echo", "single quoted"}},
		{`echo "it's fine"`, []string{"echo", "it's fine"}},
		{`echo 'say "hi"'`, []string{"echo", `say "hi"`}},
		{`echo a"b c"d`, []string{"echo", "ab cd"}},
		{"  spaced\t out  ", []string{"spaced", "out"}},
		{`echo ""`, []string{"echo", ""}},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Tokenize(tc.input)
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	for _, input := range []string{`ping "abc`, `echo 'x`, "", "   "} {
		_, err := Tokenize(input)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Tokenize(%q) error = %v, want *ValidationError", input, err)
		}
	}

	if _, err := Tokenize(`ping "abc`); err == nil || !strings.Contains(err.Error(), "unclosed quote") {
		t.Errorf("unclosed quote error = %v", err)
	}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_FlagForms(t *testing.T) {
	p := testParser(t)

	eq := mustParse(t, p, "commands --category=system")
	if !reflect.DeepEqual(eq.Parameters, map[string]string{"category": "system"}) {
		t.Errorf("--category=system parsed as %v", eq.Parameters)
	}

	space := mustParse(t, p, "commands --category system")
	if !reflect.DeepEqual(space.Parameters, eq.Parameters) {
		t.Errorf("--category system parsed as %v", space.Parameters)
	}
	if space.SubCommand != "" || len(space.Arguments) != 0 {
		t.Errorf("flag value leaked into positionals: %q %v", space.SubCommand, space.Arguments)
	}

	short := mustParse(t, p, "echo -v")
	if !reflect.DeepEqual(short.Parameters, map[string]string{"v": "true"}) {
		t.Errorf("-v parsed as %v", short.Parameters)
	}
}

func TestParse_Classification(t *testing.T) {
	p := testParser(t)
	input := `p 8.8.8.8 extra "two words" --count 3 -v --host=1.1.1.1`
	parsed := mustParse(t, p, input)

	if parsed.CommandName != "ping" {
		t.Errorf("CommandName = %q, want ping", parsed.CommandName)
	}
	if parsed.SubCommand != "8.8.8.8" {
		t.Errorf("SubCommand = %q", parsed.SubCommand)
	}
	if !reflect.DeepEqual(parsed.Arguments, []string{"extra", "two words"}) {
		t.Errorf("Arguments = %q", parsed.Arguments)
	}
	if want := map[string]string{"count": "3", "v": "true", "host": "1.1.1.1"}; !reflect.DeepEqual(parsed.Parameters, want) {
		t.Errorf("Parameters = %v, want %v", parsed.Parameters, want)
	}
	if parsed.RawInput != input {
		t.Errorf("RawInput = %q", parsed.RawInput)
	}
	if def := parsed.Definition(); def == nil || def.Name != "ping" {
		t.Errorf("Definition() = %v, want ping", def)
	}
}

// An alias may spell another command's canonical name. The parsed command
// must keep pointing at the definition the alias resolved to.
func TestParse_AliasNamedAfterAnotherCommand(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &CommandDefinition{Name: "date", Aliases: []string{"time"}, Category: CategoryUtility})
	mustRegister(t, r, &CommandDefinition{Name: "wipe", Aliases: []string{"date"}, Category: CategoryFiles})
	p := NewParser(r)

	parsed := mustParse(t, p, "time")
	if parsed.CommandName != "date" {
		t.Errorf("CommandName = %q, want date", parsed.CommandName)
	}
	if def := parsed.Definition(); def == nil || def.Name != "date" || def.Category != CategoryUtility {
		t.Errorf("Definition() = %+v, want the date command", def)
	}
}

func TestParse_BareLongFlag(t *testing.T) {
	p := testParser(t)

	// Next token is a flag so --v binds "true".
	parsed := mustParse(t, p, "echo --v -n")
	if parsed.Parameters["v"] != "true" || parsed.Parameters["n"] != "true" {
		t.Errorf("Parameters = %v", parsed.Parameters)
	}

	parsed = mustParse(t, p, "echo hello --n")
	if parsed.SubCommand != "hello" || parsed.Parameters["n"] != "true" {
		t.Errorf("SubCommand = %q, Parameters = %v", parsed.SubCommand, parsed.Parameters)
	}
}

func TestParse_RepeatedFlagLastWins(t *testing.T) {
	p := testParser(t)
	parsed := mustParse(t, p, "ping --count 1 --count=2")
	if parsed.Parameters["count"] != "2" {
		t.Errorf("count = %q, want 2", parsed.Parameters["count"])
	}
}

func TestParse_Defaults(t *testing.T) {
	p := testParser(t)
	parsed := mustParse(t, p, "ping")
	if parsed.Parameters["count"] != "4" {
		t.Errorf("count = %q, want default 4", parsed.Parameters["count"])
	}
	if _, ok := parsed.Param("host"); ok {
		t.Error("host has no default and should be absent")
	}
}

func TestParse_NotFound(t *testing.T) {
	p := testParser(t)
	_, err := p.Parse("pong 1.1.1.1")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.Name != "pong" {
		t.Errorf("Name = %q, want pong", nf.Name)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	p := testParser(t)

	tests := []struct {
		name      string
		input     string
		parameter string
		message   string
	}{
		{"integer", "ping --count abc", "count", "integer"},
		{"ip", "ping --host 256.1.1.1", "host", "IPv4"},
		{"enum", "commands --category files", "category", "one of"},
		{"required", "install", "package", "missing required"},
		{"unknown", "ping --colour red", "colour", "unknown parameter"},
		{"short unknown", "ping -x", "x", "unknown parameter"},
		{"package", "install --package 1bad", "package", "package name"},
		{"custom", "install --package com.example.app --channel nightly", "channel", "custom validation"},
		{"boolean", "echo --v maybe", "v", "boolean"},
		{"malformed", "echo --=x", "", "malformed flag"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse(tc.input)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Parameter != tc.parameter {
				t.Errorf("Parameter = %q, want %q", ve.Parameter, tc.parameter)
			}
			if !strings.Contains(ve.Error(), tc.message) {
				t.Errorf("Error() = %q, want it to contain %q", ve.Error(), tc.message)
			}
		})
	}
}

func TestParse_RequiredBeforeUnknown(t *testing.T) {
	p := testParser(t)
	_, err := p.Parse("install --bogus 1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if ve.Parameter != "package" {
		t.Errorf("Parameter = %q, want package", ve.Parameter)
	}
}

func TestParse_IntegerOK(t *testing.T) {
	p := testParser(t)
	if got := mustParse(t, p, "ping --count 42").Parameters["count"]; got != "42" {
		t.Errorf("count = %q, want 42", got)
	}
}

// =============================================================================
// SUGGEST TESTS
// =============================================================================

func TestSuggest(t *testing.T) {
	p := testParser(t)

	tests := []struct {
		input string
		want  []string
	}{
		{"e", []string{"echo"}},
		{"ping --c", []string{"--count"}},
		{"ping --", []string{"--count", "--host", "--v"}},
		{"commands --category=n", []string{"--category=network"}},
		{"commands s", []string{"system"}},
		{`echo "unclosed`, nil},
		{"nope --x", nil},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := p.Suggest(tc.input); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Suggest(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

// =============================================================================
// FORMAT ERROR TESTS
// =============================================================================

func TestFormatError(t *testing.T) {
	p := testParser(t)

	_, err := p.Parse("pin")
	msg := p.FormatError(err)
	if !strings.HasPrefix(msg, "Command not found: pin") || !strings.Contains(msg, "Did you mean: ping?") {
		t.Errorf("not-found message = %q", msg)
	}

	_, err = p.Parse("commands --category files")
	msg = p.FormatError(err)
	if !strings.Contains(msg, "Invalid input") || !strings.Contains(msg, "Usage: commands [--category=<name>]") {
		t.Errorf("validation message = %q", msg)
	}

	tests := []struct {
		err  error
		want string
	}{
		{&PermissionError{Command: "wifi", Missing: []string{"network.write"}}, "Permission denied: wifi requires network.write"},
		{&ExecutionError{Command: "ping", Err: errors.New("host unreachable")}, "host unreachable"},
		{nil, ""},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		if got := p.FormatError(tt.err); got != tt.want {
			t.Errorf("FormatError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatError_UsageFromCanonicalName(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &CommandDefinition{
		Name:       "wait",
		Usage:      "wait --seconds N",
		Aliases:    []string{"pause"},
		Parameters: []CommandParameter{{Name: "seconds", Type: TypeInteger, Required: true}},
	})
	mustRegister(t, r, &CommandDefinition{Name: "sleep", Usage: "sleep", Aliases: []string{"wait"}})
	p := NewParser(r)

	_, err := p.Parse("pause")
	msg := p.FormatError(err)
	if !strings.Contains(msg, "Usage: wait --seconds N") {
		t.Errorf("message = %q, want the usage of wait", msg)
	}
	if strings.Contains(msg, "Usage: sleep") {
		t.Errorf("message = %q shows the usage of the command aliased as wait", msg)
	}
}

func TestDidYouMean_CapsAtThree(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"net1", "net2", "net3", "net4"} {
		mustRegister(t, r, &CommandDefinition{Name: name})
	}
	if got := NewParser(r).DidYouMean("net"); !reflect.DeepEqual(got, []string{"net1", "net2", "net3"}) {
		t.Errorf("DidYouMean = %v", got)
	}
}
