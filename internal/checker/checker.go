// Package checker runs the static type checker against a candidate
// configuration and classifies its findings. The rest of the system treats
// the checker as an oracle: hand it a configuration, get back a verdict.
package checker

import (
	"context"

	"github.com/typetight-labs/typetight/internal/ruleset"
)

// Severity of a reported finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Finding is a single diagnostic from the checker.
type Finding struct {
	Path     string
	Line     int
	Column   int // 0 when the checker omits it
	Severity Severity
	Message  string
	Code     string // error code, "" when the checker printed none
}

// Report is the outcome of one checker run.
type Report struct {
	// Findings holds error-severity diagnostics only; notes are dropped at
	// parse time.
	Findings []Finding
	// SourceFiles is the number of files the checker looked at, from its
	// summary line.
	SourceFiles int
}

// Clean reports whether the run produced no findings.
func (r *Report) Clean() bool {
	return len(r.Findings) == 0
}

// Runner produces a Report for a configuration. Implementations must be
// deterministic for a fixed codebase and configuration.
type Runner interface {
	Run(ctx context.Context, cfg *ruleset.Config) (*Report, error)
}
