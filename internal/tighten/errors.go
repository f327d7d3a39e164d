package tighten

import (
	"fmt"
	"strings"

	"github.com/typetight-labs/typetight/internal/checker"
)

// BaselineError means the codebase fails rules that are never negotiable.
// Nothing can be tightened until the user fixes the listed findings.
type BaselineError struct {
	Findings []checker.Finding
}

func (e *BaselineError) Error() string {
	return fmt.Sprintf("codebase fails %d baseline check(s); fix these before tightening:\n%s",
		len(e.Findings), formatFindings(e.Findings))
}

// UnknownViolationError means the checker reported findings no catalog rule
// accounts for. Disabling an unrecognized check is unsafe, so these always
// abort; the raw findings are surfaced for manual triage.
type UnknownViolationError struct {
	Findings []checker.Finding
}

func (e *UnknownViolationError) Error() string {
	return fmt.Sprintf("%d finding(s) could not be attributed to any known rule:\n%s",
		len(e.Findings), formatFindings(e.Findings))
}

// ValidationError means the narrowed configuration still fails the checker
// after one retry. Given a correct dependency closure this indicates a
// non-deterministic checker run.
type ValidationError struct {
	Findings []checker.Finding
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("narrowed configuration still fails validation after retry (%d finding(s)):\n%s",
		len(e.Findings), formatFindings(e.Findings))
}

// StaleConfigError means the persisted configuration no longer matches
// reality: the codebase fails under its own recorded rule set.
type StaleConfigError struct {
	Path     string
	Findings []checker.Finding
}

func (e *StaleConfigError) Error() string {
	return fmt.Sprintf("codebase no longer passes the configuration persisted at %s (%d finding(s)); fix the source or regenerate with 'init --overwrite':\n%s",
		e.Path, len(e.Findings), formatFindings(e.Findings))
}

func formatFindings(findings []checker.Finding) string {
	const limit = 20
	var b strings.Builder
	for i, f := range findings {
		if i == limit {
			fmt.Fprintf(&b, "  ... and %d more\n", len(findings)-limit)
			break
		}
		fmt.Fprintf(&b, "  %s:%d: %s", f.Path, f.Line, f.Message)
		if f.Code != "" {
			fmt.Fprintf(&b, " [%s]", f.Code)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
