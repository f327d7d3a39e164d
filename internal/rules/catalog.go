// Package rules defines the static catalog of checker strictness rules known
// to typetight, including baseline membership, dependency constraints, and
// the error-code bindings used to attribute checker failures to rules.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typetight-labs/typetight/internal/dag"
)

// Rule names. These double as the config keys written to mypy.ini.
const (
	NoImplicitOptional        = "no_implicit_optional"
	StrictOptional            = "strict_optional"
	WarnRedundantCasts        = "warn_redundant_casts"
	CheckUntypedDefs          = "check_untyped_defs"
	DisallowUntypedCalls      = "disallow_untyped_calls"
	DisallowUntypedDefs       = "disallow_untyped_defs"
	DisallowIncompleteDefs    = "disallow_incomplete_defs"
	DisallowUntypedDecorators = "disallow_untyped_decorators"
	WarnUnusedIgnores         = "warn_unused_ignores"
)

// Rule describes a single checker strictness rule.
type Rule struct {
	// Name is the unique identifier and the mypy.ini config key.
	Name string
	// Baseline rules are always enabled and never eligible for suppression.
	Baseline bool
	// Requires lists rules that must be enabled for this rule to be meaningful.
	Requires []string
	// PerModule reports whether the rule supports per-module override.
	// Rules without it can only be toggled globally.
	PerModule bool
	// Description is a short human-readable summary.
	Description string
}

// Binding maps a checker error to the rule whose suppression hides it.
// Bindings for a code are tried in order of decreasing selectivity; an empty
// Message matches any error carrying the code.
type Binding struct {
	Code    string
	Message string
	Rule    string
}

// Catalog is the fixed registry of all known rules. It carries no mutable
// state and is constructed once at process start.
type Catalog struct {
	rules    []Rule
	byName   map[string]Rule
	graph    *dag.Graph
	bindings map[string][]Binding
}

// NewCatalog builds a catalog from rule definitions and classifier bindings.
// It returns an error if a rule requires an unknown rule, if the dependency
// graph contains a cycle, or if a binding references an unknown rule.
func NewCatalog(ruleDefs []Rule, bindings []Binding) (*Catalog, error) {
	c := &Catalog{
		rules:    ruleDefs,
		byName:   make(map[string]Rule, len(ruleDefs)),
		graph:    dag.NewGraph(),
		bindings: make(map[string][]Binding),
	}

	for _, r := range ruleDefs {
		if _, dup := c.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", r.Name)
		}
		c.byName[r.Name] = r
		c.graph.AddNode(r.Name)
	}

	for _, r := range ruleDefs {
		for _, req := range r.Requires {
			if _, ok := c.byName[req]; !ok {
				return nil, fmt.Errorf("rule %q requires unknown rule %q", r.Name, req)
			}
			if err := c.graph.AddEdge(req, r.Name); err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
		}
	}

	if hasCycle, path := c.graph.HasCycle(); hasCycle {
		return nil, fmt.Errorf("rule dependency cycle: %s", strings.Join(path, " -> "))
	}

	for _, b := range bindings {
		if _, ok := c.byName[b.Rule]; !ok {
			return nil, fmt.Errorf("binding for code %q references unknown rule %q", b.Code, b.Rule)
		}
		c.bindings[b.Code] = append(c.bindings[b.Code], b)
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. Intended for the
// package-level default catalog, where an invalid definition is a programming
// error.
func MustCatalog(ruleDefs []Rule, bindings []Binding) *Catalog {
	c, err := NewCatalog(ruleDefs, bindings)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns all rules in catalog order. Catalog order is the canonical
// serialization order for config output.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Names returns all rule names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Baseline returns the names of all baseline rules in catalog order.
func (c *Catalog) Baseline() []string {
	var names []string
	for _, r := range c.rules {
		if r.Baseline {
			names = append(names, r.Name)
		}
	}
	return names
}

// Get returns a rule by name.
func (c *Catalog) Get(name string) (Rule, bool) {
	r, ok := c.byName[name]
	return r, ok
}

// Closure returns a rule plus everything it transitively requires.
func (c *Catalog) Closure(name string) []string {
	return c.graph.Closure(name)
}

// Dependents returns a rule plus every rule that transitively requires it.
// Used by per-module narrowing: disabling a rule for a module also disables
// its whole dependent closure there.
func (c *Catalog) Dependents(name string) []string {
	return c.graph.DependentClosure(name)
}

// Match resolves a checker error to the rule whose suppression hides it.
// Bindings for the code are tried in registration order; the first whose
// message substring matches wins. ok is false when the code has no bindings
// or no binding matches.
func (c *Catalog) Match(code, message string) (string, bool) {
	for _, b := range c.bindings[code] {
		if b.Message == "" || strings.Contains(message, b.Message) {
			return b.Rule, true
		}
	}
	return "", false
}

// Codes returns all error codes with registered bindings, sorted.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.bindings))
	for code := range c.bindings {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// BindingsFor returns the bindings whose suppression rule is the named rule.
func (c *Catalog) BindingsFor(name string) []Binding {
	var out []Binding
	for _, code := range c.Codes() {
		for _, b := range c.bindings[code] {
			if b.Rule == name {
				out = append(out, b)
			}
		}
	}
	return out
}
