// Package ruleset holds the in-memory checker configuration: which rules are
// enabled globally, which are disabled per module, and which third-party
// modules have blanket stub suppression. It serializes to and from the
// persisted mypy.ini format.
package ruleset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typetight-labs/typetight/internal/rules"
)

// Config is a single checker configuration. It is owned by the tightening
// engine for the duration of a run; the oracle only ever sees its marshalled
// form.
type Config struct {
	catalog   *rules.Catalog
	enabled   map[string]bool
	overrides map[string]map[string]bool // module -> rules disabled there
	stubs     map[string]bool            // third-party modules with ignore_missing_imports

	// ExtraGlobal holds verbatim "key = value" lines appended to the global
	// section, from the user's own-config passthrough. Preserved in order.
	ExtraGlobal []string
}

func newConfig(cat *rules.Catalog) *Config {
	return &Config{
		catalog:   cat,
		enabled:   make(map[string]bool),
		overrides: make(map[string]map[string]bool),
		stubs:     make(map[string]bool),
	}
}

// Baseline returns the laxest acceptable configuration: baseline rules only,
// no overrides, stub errors suppressed globally at the probe level by the
// caller leaving every negotiable rule off.
func Baseline(cat *rules.Catalog) *Config {
	c := newConfig(cat)
	for _, name := range cat.Baseline() {
		c.enabled[name] = true
	}
	return c
}

// Strict returns the tightest possible starting point: every catalog rule
// enabled globally, no module overrides, no stub suppressions.
func Strict(cat *rules.Catalog) *Config {
	c := newConfig(cat)
	for _, name := range cat.Names() {
		c.enabled[name] = true
	}
	return c
}

// Catalog returns the rule catalog this configuration was built against.
func (c *Config) Catalog() *rules.Catalog {
	return c.catalog
}

// Enabled reports whether a rule is enabled globally.
func (c *Config) Enabled(rule string) bool {
	return c.enabled[rule]
}

// EnabledForModule reports whether a rule is in effect for the given module.
// Overrides apply to a module and everything beneath it, matching the ".*"
// wildcard their persisted sections carry.
func (c *Config) EnabledForModule(rule, module string) bool {
	if !c.enabled[rule] {
		return false
	}
	for m := module; m != ""; {
		if c.overrides[m][rule] {
			return false
		}
		idx := strings.LastIndex(m, ".")
		if idx < 0 {
			break
		}
		m = m[:idx]
	}
	return true
}

// DisableGlobal disables a rule globally, together with its dependent
// closure. Baseline rules cannot be disabled. Overrides mentioning a rule
// that is no longer enabled globally are removed (overrides only narrow).
func (c *Config) DisableGlobal(rule string) error {
	r, ok := c.catalog.Get(rule)
	if !ok {
		return fmt.Errorf("unknown rule %q", rule)
	}
	if r.Baseline {
		return fmt.Errorf("rule %q is baseline and cannot be disabled", rule)
	}

	for _, name := range c.catalog.Dependents(rule) {
		delete(c.enabled, name)
		for module, disabled := range c.overrides {
			delete(disabled, name)
			if len(disabled) == 0 {
				delete(c.overrides, module)
			}
		}
	}
	return nil
}

// DisableForModule disables a rule for one module, together with its
// dependent closure there. The rule must be per-module overridable, enabled
// globally, and not baseline.
func (c *Config) DisableForModule(module, rule string) error {
	r, ok := c.catalog.Get(rule)
	if !ok {
		return fmt.Errorf("unknown rule %q", rule)
	}
	if r.Baseline {
		return fmt.Errorf("rule %q is baseline and cannot be disabled for %s", rule, module)
	}
	if !r.PerModule {
		return fmt.Errorf("rule %q does not support per-module override", rule)
	}
	if !c.enabled[rule] {
		return fmt.Errorf("rule %q is not enabled globally, nothing to override for %s", rule, module)
	}

	for _, name := range c.catalog.Dependents(rule) {
		dep, _ := c.catalog.Get(name)
		if !dep.PerModule || !c.enabled[name] {
			continue
		}
		if c.overrides[module] == nil {
			c.overrides[module] = make(map[string]bool)
		}
		c.overrides[module][name] = true
	}
	return nil
}

// SuppressStubs adds third-party modules to the stub-suppression set.
func (c *Config) SuppressStubs(modules ...string) {
	for _, m := range modules {
		c.stubs[m] = true
	}
}

// SuppressesStubs reports whether missing-stub errors for the module are
// suppressed, directly or by an ancestor suppression (sections match with a
// trailing ".*").
func (c *Config) SuppressesStubs(module string) bool {
	if c.stubs[module] {
		return true
	}
	for suppressed := range c.stubs {
		if strings.HasPrefix(module, suppressed+".") {
			return true
		}
	}
	return false
}

// Modules returns every module with an override, sorted.
func (c *Config) Modules() []string {
	modules := make([]string, 0, len(c.overrides))
	for m := range c.overrides {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// DisabledFor returns the rules disabled for a module, in catalog order.
func (c *Config) DisabledFor(module string) []string {
	disabled := c.overrides[module]
	if len(disabled) == 0 {
		return nil
	}
	var out []string
	for _, name := range c.catalog.Names() {
		if disabled[name] {
			out = append(out, name)
		}
	}
	return out
}

// StubSuppressions returns the suppressed third-party modules, sorted.
func (c *Config) StubSuppressions() []string {
	out := make([]string, 0, len(c.stubs))
	for m := range c.stubs {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// EnabledRules returns the globally enabled rules in catalog order.
func (c *Config) EnabledRules() []string {
	var out []string
	for _, name := range c.catalog.Names() {
		if c.enabled[name] {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks the configuration invariants. A persisted file that fails
// validation is rejected, never repaired.
func (c *Config) Validate() error {
	for _, name := range c.catalog.Baseline() {
		if !c.enabled[name] {
			return fmt.Errorf("baseline rule %q is not enabled", name)
		}
	}

	for name := range c.enabled {
		for _, req := range c.catalog.Closure(name) {
			if !c.enabled[req] {
				return fmt.Errorf("rule %q is enabled but its requirement %q is not", name, req)
			}
		}
	}

	for module, disabled := range c.overrides {
		for name := range disabled {
			r, ok := c.catalog.Get(name)
			if !ok {
				return fmt.Errorf("module %q overrides unknown rule %q", module, name)
			}
			if r.Baseline {
				return fmt.Errorf("module %q overrides baseline rule %q", module, name)
			}
			if !r.PerModule {
				return fmt.Errorf("module %q overrides global-only rule %q", module, name)
			}
			if !c.enabled[name] {
				return fmt.Errorf("module %q overrides rule %q which is not enabled globally", module, name)
			}
		}
		// A disabled requirement with a still-active dependent would leave the
		// dependent meaningless.
		for name := range disabled {
			for _, dep := range c.catalog.Dependents(name) {
				if dep == name {
					continue
				}
				if c.enabled[dep] && !disabled[dep] {
					depRule, _ := c.catalog.Get(dep)
					if depRule.PerModule {
						return fmt.Errorf("module %q disables %q but leaves dependent %q active", module, name, dep)
					}
				}
			}
		}
	}

	for m := range c.stubs {
		if err := validateModuleName(m); err != nil {
			return err
		}
	}
	for m := range c.overrides {
		if err := validateModuleName(m); err != nil {
			return err
		}
	}

	return nil
}

// Equal reports whether two configurations are logically identical.
func (c *Config) Equal(other *Config) bool {
	if len(c.enabled) != len(other.enabled) {
		return false
	}
	for name := range c.enabled {
		if !other.enabled[name] {
			return false
		}
	}

	if len(c.overrides) != len(other.overrides) {
		return false
	}
	for module, disabled := range c.overrides {
		otherDisabled := other.overrides[module]
		if len(disabled) != len(otherDisabled) {
			return false
		}
		for name := range disabled {
			if !otherDisabled[name] {
				return false
			}
		}
	}

	if len(c.stubs) != len(other.stubs) {
		return false
	}
	for m := range c.stubs {
		if !other.stubs[m] {
			return false
		}
	}

	if len(c.ExtraGlobal) != len(other.ExtraGlobal) {
		return false
	}
	for i, line := range c.ExtraGlobal {
		if other.ExtraGlobal[i] != line {
			return false
		}
	}

	return true
}

// TighterThan reports whether c enforces strictly more than other: every
// rule other applies anywhere, c also applies there, every stub suppression
// of c is also suppressed by other, and the two differ somewhere. Extra
// global lines must match for the comparison to be meaningful.
func (c *Config) TighterThan(other *Config) bool {
	if c.Equal(other) {
		return false
	}
	if len(c.ExtraGlobal) != len(other.ExtraGlobal) {
		return false
	}
	for i, line := range c.ExtraGlobal {
		if other.ExtraGlobal[i] != line {
			return false
		}
	}

	for name := range other.enabled {
		if !c.enabled[name] {
			return false
		}
	}
	// Wherever other enforces a rule on a module, c must too. Overrides only
	// appear on modules, so checking other's modules plus c's suffices.
	for _, rule := range c.catalog.Names() {
		for module := range c.overrides {
			if !c.EnabledForModule(rule, module) && other.EnabledForModule(rule, module) {
				return false
			}
		}
	}
	for m := range c.stubs {
		if !other.SuppressesStubs(m) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy sharing the same catalog.
func (c *Config) Clone() *Config {
	out := newConfig(c.catalog)
	for name := range c.enabled {
		out.enabled[name] = true
	}
	for module, disabled := range c.overrides {
		copied := make(map[string]bool, len(disabled))
		for name := range disabled {
			copied[name] = true
		}
		out.overrides[module] = copied
	}
	for m := range c.stubs {
		out.stubs[m] = true
	}
	out.ExtraGlobal = append([]string(nil), c.ExtraGlobal...)
	return out
}

func validateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("empty module name")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid module name %q", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return fmt.Errorf("invalid module name %q", name)
		}
	}
	return nil
}
