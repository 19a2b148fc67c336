// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package permissions answers whether a permission identifier is granted.
//
// Identifiers are dotted strings such as "network.read". A grant ending in
// ".*" covers every identifier under that prefix and "*" covers everything.
package permissions

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/deskshell/internal/logging"
)

// Wildcard grants every permission.
const Wildcard = "*"

// =============================================================================
// GRANT SET
// =============================================================================

// GrantSet is a mutable set of granted permissions. The zero value grants
// nothing; it is safe for concurrent use.
type GrantSet struct {
	mu      sync.RWMutex
	granted map[string]struct{}
	denials *logging.Throttled
}

// Option configures a GrantSet.
type Option func(*GrantSet)

// WithDenialLog logs each denied check through t.
func WithDenialLog(t *logging.Throttled) Option {
	return func(g *GrantSet) {
		g.denials = t
	}
}

// NewGrantSet creates a set holding perms.
func NewGrantSet(perms []string, opts ...Option) *GrantSet {
	g := &GrantSet{granted: make(map[string]struct{})}
	for _, opt := range opts {
		opt(g)
	}
	g.Replace(perms)
	return g
}

// NewDefaultGrantSet creates a set that logs denials at most once a second.
func NewDefaultGrantSet(perms []string) *GrantSet {
	return NewGrantSet(perms, WithDenialLog(logging.NewThrottled(nil, time.Second, 5)))
}

// IsGranted reports whether permission is covered by a grant.
func (g *GrantSet) IsGranted(_ context.Context, permission string) bool {
	g.mu.RLock()
	ok := g.matchLocked(permission)
	g.mu.RUnlock()

	if !ok && g.denials != nil {
		g.denials.Printf("PERMISSION_DENIED | permission=%s", permission)
	}
	return ok
}

func (g *GrantSet) matchLocked(permission string) bool {
	if _, ok := g.granted[Wildcard]; ok {
		return true
	}
	if _, ok := g.granted[permission]; ok {
		return true
	}
	for prefix := permission; ; {
		i := strings.LastIndexByte(prefix, '.')
		if i < 0 {
			return false
		}
		prefix = prefix[:i]
		if _, ok := g.granted[prefix+".*"]; ok {
			return true
		}
	}
}

// Grant adds permissions.
func (g *GrantSet) Grant(perms ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.granted == nil {
		g.granted = make(map[string]struct{})
	}
	for _, p := range perms {
		if p = strings.TrimSpace(p); p != "" {
			g.granted[p] = struct{}{}
		}
	}
}

// Revoke removes exact grants. Revoking "network.read" does not narrow a
// "network.*" grant.
func (g *GrantSet) Revoke(perms ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range perms {
		delete(g.granted, strings.TrimSpace(p))
	}
}

// Replace swaps the whole set in one step.
func (g *GrantSet) Replace(perms []string) {
	next := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if p = strings.TrimSpace(p); p != "" {
			next[p] = struct{}{}
		}
	}
	g.mu.Lock()
	g.granted = next
	g.mu.Unlock()
}

// Granted lists the grants, sorted.
func (g *GrantSet) Granted() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.granted))
	for p := range g.granted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// FIXED ORACLES
// =============================================================================

// AllowAll grants every permission.
type AllowAll struct{}

// IsGranted always returns true.
func (AllowAll) IsGranted(context.Context, string) bool { return true }

// DenyAll grants nothing.
type DenyAll struct{}

// IsGranted always returns false.
func (DenyAll) IsGranted(context.Context, string) bool { return false }

// ParseList splits a comma-separated permission list.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
