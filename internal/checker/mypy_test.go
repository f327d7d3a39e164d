package checker

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/typetight-labs/typetight/internal/rules"
	"github.com/typetight-labs/typetight/internal/ruleset"
)

// scriptChecker builds a shell script standing in for the checker binary.
// It records its arguments so tests can inspect the invocation.
func scriptChecker(t *testing.T, stdout string, exit int) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "mypy")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\ncat <<'EOF'\n" + stdout + "EOF\nexit " + strconv.Itoa(exit) + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, argsFile
}

func TestMypyRunner_CleanRun(t *testing.T) {
	bin, argsFile := scriptChecker(t, "Success: no issues found in 4 source files\n", 0)
	runner := NewMypyRunner(bin, []string{"src", "tests"}, "1.0.0", nil)

	report, err := runner.Run(context.Background(), ruleset.Baseline(rules.Default()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Clean() || report.SourceFiles != 4 {
		t.Errorf("report = %+v", report)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--config-file", "--show-error-codes", "src", "tests"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("checker args missing %q: %s", want, args)
		}
	}
}

func TestMypyRunner_Findings(t *testing.T) {
	out := "app/main.py:3: error: Function is missing a type annotation  [no-untyped-def]\n" +
		"Found 1 error in 1 file (checked 4 source files)\n"
	bin, _ := scriptChecker(t, out, 1)
	runner := NewMypyRunner(bin, []string{"."}, "1.0.0", nil)

	report, err := runner.Run(context.Background(), ruleset.Strict(rules.Default()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Code != "no-untyped-def" {
		t.Errorf("Findings = %+v", report.Findings)
	}
}

func TestMypyRunner_CrashIsError(t *testing.T) {
	bin, _ := scriptChecker(t, "", 2)
	runner := NewMypyRunner(bin, []string{"."}, "1.0.0", nil)

	if _, err := runner.Run(context.Background(), ruleset.Baseline(rules.Default())); err == nil {
		t.Fatal("expected error for checker crash")
	}
}

func TestMypyRunner_ExitFindingsMismatch(t *testing.T) {
	// Exit 1 with nothing parsed means output we failed to account for.
	bin, _ := scriptChecker(t, "Success: no issues found in 4 source files\n", 1)
	runner := NewMypyRunner(bin, []string{"."}, "1.0.0", nil)

	if _, err := runner.Run(context.Background(), ruleset.Baseline(rules.Default())); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestMypyRunner_MissingBinary(t *testing.T) {
	runner := NewMypyRunner(filepath.Join(t.TempDir(), "nope"), []string{"."}, "1.0.0", nil)
	if _, err := runner.Run(context.Background(), ruleset.Baseline(rules.Default())); err == nil {
		t.Fatal("expected error for missing checker binary")
	}
}
