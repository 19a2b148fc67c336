// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"

	"github.com/jeranaias/deskshell/internal/util"
)

// HelpText renders the full help page for a command. Unknown names produce a
// "not found" message rather than an error.
func (r *Registry) HelpText(nameOrAlias string) string {
	def, ok := r.Resolve(nameOrAlias)
	if !ok {
		return fmt.Sprintf("Command not found: %s\nType 'help' to list available commands.", nameOrAlias)
	}

	var sb strings.Builder
	sb.WriteString(def.Name)
	if def.Description != "" {
		sb.WriteString(" - " + def.Description)
	}
	sb.WriteString("\n")
	sb.WriteString("Category: " + def.Category.DisplayName() + "\n")
	if def.Usage != "" {
		sb.WriteString("Usage: " + def.Usage + "\n")
	}

	if len(def.Parameters) > 0 {
		sb.WriteString("\nParameters:\n")
		writeParameterTable(&sb, def.Parameters)
	}

	if len(def.Examples) > 0 {
		sb.WriteString("\nExamples:\n")
		for _, ex := range def.Examples {
			sb.WriteString("  " + ex + "\n")
		}
	}

	if len(def.Aliases) > 0 {
		sb.WriteString("\nAliases: " + strings.Join(def.Aliases, ", ") + "\n")
	}
	if len(def.RequiredPermissions) > 0 {
		sb.WriteString("Required permissions: " + strings.Join(def.RequiredPermissions, ", ") + "\n")
	}
	if def.MinPlatformVersion > 0 {
		sb.WriteString(fmt.Sprintf("Minimum platform version: %d\n", def.MinPlatformVersion))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeParameterTable(sb *strings.Builder, params []CommandParameter) {
	flags := make([]string, len(params))
	descs := make([]string, len(params))
	for i, p := range params {
		flags[i] = "--" + p.Name
		descs[i] = p.Description
	}
	flagWidth := util.MaxWidth(flags...) + 2
	descWidth := util.MaxWidth(descs...) + 2

	for i, p := range params {
		line := "  " + util.PadRight(flags[i], flagWidth) + util.PadRight(descs[i], descWidth)
		if p.Required {
			line += "required"
		} else {
			line += "optional"
		}
		line += "  " + strings.ToLower(p.Type.String())
		if p.HasDefault {
			line += "  default: " + p.Default
		}
		if len(p.Options) > 0 {
			line += "  options: " + strings.Join(p.Options, ", ")
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
}

// CategoryHelp lists the commands filed under cat.
func (r *Registry) CategoryHelp(cat Category) string {
	defs := r.ByCategory(cat)
	if len(defs) == 0 {
		return fmt.Sprintf("No commands in category %s.", cat.DisplayName())
	}

	var sb strings.Builder
	sb.WriteString(cat.DisplayName() + " commands:\n")
	writeCommandList(&sb, defs)
	return strings.TrimRight(sb.String(), "\n")
}

// OverallHelp lists every command grouped by category.
func (r *Registry) OverallHelp() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cat := range r.Categories() {
		sb.WriteString("\n" + cat.DisplayName() + ":\n")
		writeCommandList(&sb, r.ByCategory(cat))
	}
	sb.WriteString("\nType 'help <command>' for details on a command.")
	return sb.String()
}

func writeCommandList(sb *strings.Builder, defs []*CommandDefinition) {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	width := util.MaxWidth(names...) + 2
	for _, d := range defs {
		line := "  " + util.PadRight(d.Name, width) + d.Description
		if len(d.Aliases) > 0 {
			line += " (" + strings.Join(d.Aliases, ", ") + ")"
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
}
