package checker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// findingLine matches "path:line: error: message" and the optional column and
// "[code]" suffix mypy adds under --show-error-codes.
var findingLine = regexp.MustCompile(
	`^(.+?):(\d+):(?:(\d+):)? (error|warning|note): (.*?)(?:\s+\[([a-z0-9-]+)\])?$`,
)

var (
	summaryFound   = regexp.MustCompile(`^Found \d+ errors? in \d+ files? \(checked (\d+) source files?\)$`)
	summarySuccess = regexp.MustCompile(`^Success: no issues found in (\d+) source files?$`)
)

// ParseOutput turns the checker's stdout into a Report. Notes are dropped;
// every other unrecognized line is an error, since a line we cannot account
// for could hide a violation.
func ParseOutput(stdout string) (*Report, error) {
	report := &Report{}
	sawSummary := false

	for _, raw := range strings.Split(stdout, "\n") {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}

		if m := summaryFound.FindStringSubmatch(line); m != nil {
			report.SourceFiles, _ = strconv.Atoi(m[1])
			sawSummary = true
			continue
		}
		if m := summarySuccess.FindStringSubmatch(line); m != nil {
			report.SourceFiles, _ = strconv.Atoi(m[1])
			sawSummary = true
			continue
		}

		m := findingLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("unparseable checker output line: %q", line)
		}

		severity := Severity(m[4])
		if severity == SeverityNote {
			continue
		}

		lineNo, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("bad line number in %q: %w", line, err)
		}
		column := 0
		if m[3] != "" {
			column, err = strconv.Atoi(m[3])
			if err != nil {
				return nil, fmt.Errorf("bad column number in %q: %w", line, err)
			}
		}

		report.Findings = append(report.Findings, Finding{
			Path:     m[1],
			Line:     lineNo,
			Column:   column,
			Severity: severity,
			Message:  m[5],
			Code:     m[6],
		})
	}

	if !sawSummary {
		return nil, fmt.Errorf("checker output ended without a summary line")
	}
	return report, nil
}
