package checker

import (
	"regexp"
	"sort"

	"github.com/typetight-labs/typetight/internal/pymodule"
	"github.com/typetight-labs/typetight/internal/rules"
)

// Missing-stub findings carry the offending third-party module in the
// message, not the path, so they are recognized before rule attribution.
var missingStubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Skipping analyzing ['"]([^'"]+)['"]: (?:found module but no type hints or library stubs|module is installed, but missing library stubs or py\.typed marker)`),
	regexp.MustCompile(`Cannot find implementation or library stub for module named ['"]([^'"]+)['"]`),
}

// Violation is a finding attributed to a catalog rule in a first-party
// module.
type Violation struct {
	Rule    string
	Module  string
	Finding Finding
}

// Classification buckets a report's findings.
type Classification struct {
	// Violations per rule, in report order.
	Violations map[string][]Violation
	// MissingStubs are third-party modules lacking type stubs, deduped and
	// sorted.
	MissingStubs []string
	// Unknown holds findings no rule accounts for, including findings whose
	// path could not be mapped to a module. Any entry here aborts tightening.
	Unknown []Finding
}

// Empty reports whether nothing was classified.
func (c *Classification) Empty() bool {
	return len(c.Violations) == 0 && len(c.MissingStubs) == 0 && len(c.Unknown) == 0
}

// Modules returns every first-party module with a violation of the given
// rule, deduped and sorted.
func (c *Classification) Modules(rule string) []string {
	seen := make(map[string]bool)
	for _, v := range c.Violations[rule] {
		seen[v.Module] = true
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Rules returns the rules with at least one violation, in catalog order.
func (c *Classification) Rules(cat *rules.Catalog) []string {
	var out []string
	for _, name := range cat.Names() {
		if len(c.Violations[name]) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// OnlyRule reports whether every classified finding is a violation of the
// single given rule.
func (c *Classification) OnlyRule(rule string) bool {
	if len(c.MissingStubs) > 0 || len(c.Unknown) > 0 {
		return false
	}
	for r, vs := range c.Violations {
		if r != rule && len(vs) > 0 {
			return false
		}
	}
	return len(c.Violations[rule]) > 0
}

// Classify attributes each finding in the report to a catalog rule, a
// missing third-party stub, or the unknown bucket.
func Classify(cat *rules.Catalog, report *Report) *Classification {
	c := &Classification{Violations: make(map[string][]Violation)}
	stubs := make(map[string]bool)

	for _, f := range report.Findings {
		if module, ok := matchMissingStub(f.Message); ok {
			stubs[module] = true
			continue
		}

		rule, ok := cat.Match(f.Code, f.Message)
		if !ok {
			c.Unknown = append(c.Unknown, f)
			continue
		}

		module, err := pymodule.FromPath(f.Path)
		if err != nil {
			c.Unknown = append(c.Unknown, f)
			continue
		}

		c.Violations[rule] = append(c.Violations[rule], Violation{
			Rule:    rule,
			Module:  module,
			Finding: f,
		})
	}

	for m := range stubs {
		c.MissingStubs = append(c.MissingStubs, m)
	}
	sort.Strings(c.MissingStubs)
	return c
}

// IsMissingStub reports whether a finding message is a missing-stub report
// for a third-party module.
func IsMissingStub(message string) bool {
	_, ok := matchMissingStub(message)
	return ok
}

func matchMissingStub(message string) (string, bool) {
	for _, pattern := range missingStubPatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			return m[1], true
		}
	}
	return "", false
}
