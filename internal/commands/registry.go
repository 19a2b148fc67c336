// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SEARCH SCORES
// =============================================================================

// Search scores. Only the highest matching rule counts for a command.
const (
	ScoreExactName      = 100
	ScoreNamePrefix     = 50
	ScoreAliasContains  = 30
	ScoreNameContains   = 25
	ScoreDescriptionHit = 10
)

// PermissionOracle answers whether a permission is currently granted.
type PermissionOracle interface {
	IsGranted(ctx context.Context, permission string) bool
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry is the catalog of command definitions, aliases and categories.
// All three indexes are guarded by one lock so readers never see an alias
// or category entry without its definition.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandDefinition
	aliases    map[string]string
	categories map[Category][]*CommandDefinition
	order      []string
	observers  []func([]*CommandDefinition)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandDefinition),
		aliases:    make(map[string]string),
		categories: make(map[Category][]*CommandDefinition),
	}
}

// Register adds def, replacing any definition with the same name. Aliases
// are last-write-wins. A replaced definition stays in the category bucket
// it was first registered under if the category changed.
func (r *Registry) Register(def *CommandDefinition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return errors.New("command name cannot be empty")
	}
	if def.Executor == nil {
		return errors.New("command " + def.Name + " has no executor")
	}
	def = cloneDefinition(def)

	r.mu.Lock()
	if _, exists := r.commands[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.commands[def.Name] = def
	for _, alias := range def.Aliases {
		r.aliases[alias] = def.Name
	}

	bucket := r.categories[def.Category]
	replaced := false
	for i, existing := range bucket {
		if existing.Name == def.Name {
			bucket[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		r.categories[def.Category] = append(bucket, def)
	}

	observers := append([]func([]*CommandDefinition){}, r.observers...)
	snapshot := r.allLocked()
	r.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return nil
}

// Subscribe registers fn to be called with the full command list after
// every registration.
func (r *Registry) Subscribe(fn func([]*CommandDefinition)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Resolve finds a definition by alias or canonical name. Aliases are checked
// first.
func (r *Registry) Resolve(nameOrAlias string) (*CommandDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(nameOrAlias)
}

func (r *Registry) resolveLocked(nameOrAlias string) (*CommandDefinition, bool) {
	if name, ok := r.aliases[nameOrAlias]; ok {
		if def, ok := r.commands[name]; ok {
			return def, true
		}
	}
	def, ok := r.commands[nameOrAlias]
	return def, ok
}

// Lookup finds a definition by canonical name only, ignoring aliases.
func (r *Registry) Lookup(name string) (*CommandDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.commands[name]
	return def, ok
}

// All returns every definition in first-registration order.
func (r *Registry) All() []*CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allLocked()
}

func (r *Registry) allLocked() []*CommandDefinition {
	defs := make([]*CommandDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.commands[name])
	}
	return defs
}

// ByCategory returns the definitions filed under cat.
func (r *Registry) ByCategory(cat Category) []*CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket := r.categories[cat]
	out := make([]*CommandDefinition, len(bucket))
	copy(out, bucket)
	return out
}

// Categories returns the non-empty categories in display order.
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var cats []Category
	for _, c := range AllCategories {
		if len(r.categories[c]) > 0 {
			cats = append(cats, c)
		}
	}
	return cats
}

// =============================================================================
// SEARCH & COMPLETION
// =============================================================================

// Search ranks commands against query. Commands that match no rule are
// omitted; equal scores keep registration order.
func (r *Registry) Search(query string) []CommandSuggestion {
	q := strings.ToLower(norm.NFC.String(strings.TrimSpace(query)))
	if q == "" {
		return nil
	}

	var results []CommandSuggestion
	for _, def := range r.All() {
		score := searchScore(def, q)
		if score == 0 {
			continue
		}
		results = append(results, CommandSuggestion{
			Text:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Score:       score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func searchScore(def *CommandDefinition, q string) int {
	name := strings.ToLower(def.Name)
	switch {
	case name == q:
		return ScoreExactName
	case strings.HasPrefix(name, q):
		return ScoreNamePrefix
	case aliasContains(def.Aliases, q):
		return ScoreAliasContains
	case strings.Contains(name, q):
		return ScoreNameContains
	case strings.Contains(strings.ToLower(def.Description), q):
		return ScoreDescriptionHit
	}
	return 0
}

func aliasContains(aliases []string, q string) bool {
	for _, alias := range aliases {
		if strings.Contains(strings.ToLower(alias), q) {
			return true
		}
	}
	return false
}

// Autocomplete completes partialInput. With at most one token it returns
// command names and aliases starting with that token, sorted. Otherwise it
// returns option values of the resolved command that start with the last
// token.
func (r *Registry) Autocomplete(partialInput string) []string {
	tokens := strings.Fields(partialInput)

	if len(tokens) <= 1 {
		prefix := ""
		if len(tokens) == 1 {
			prefix = strings.ToLower(tokens[0])
		}
		return r.completeNames(prefix)
	}

	def, ok := r.Resolve(tokens[0])
	if !ok {
		return nil
	}
	last := strings.ToLower(tokens[len(tokens)-1])

	seen := make(map[string]bool)
	var values []string
	for _, p := range def.Parameters {
		for _, v := range p.Options {
			if seen[v] || !strings.HasPrefix(strings.ToLower(v), last) {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}

func (r *Registry) completeNames(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	add := func(s string) {
		if !seen[s] && strings.HasPrefix(strings.ToLower(s), prefix) {
			seen[s] = true
			names = append(names, s)
		}
	}
	for name := range r.commands {
		add(name)
	}
	for alias := range r.aliases {
		add(alias)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// PERMISSIONS
// =============================================================================

// PermissionGap returns the permissions def requires that oracle does not
// grant. A nil oracle grants nothing.
func (r *Registry) PermissionGap(ctx context.Context, oracle PermissionOracle, def *CommandDefinition) []string {
	var missing []string
	for _, perm := range def.RequiredPermissions {
		if oracle == nil || !oracle.IsGranted(ctx, perm) {
			missing = append(missing, perm)
		}
	}
	return missing
}

func cloneDefinition(def *CommandDefinition) *CommandDefinition {
	c := *def
	c.Examples = append([]string(nil), def.Examples...)
	c.Aliases = append([]string(nil), def.Aliases...)
	c.RequiredPermissions = append([]string(nil), def.RequiredPermissions...)
	c.Parameters = make([]CommandParameter, len(def.Parameters))
	for i, p := range def.Parameters {
		p.Options = append([]string(nil), p.Options...)
		c.Parameters[i] = p
	}
	return &c
}
