package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/typetight-labs/typetight/internal/cli/config"
	"github.com/typetight-labs/typetight/internal/rules"
	"github.com/typetight-labs/typetight/internal/ruleset"
)

// fakeChecker writes a shell script that plays the checker: fixed stdout,
// fixed exit code, arguments ignored.
func fakeChecker(t *testing.T, stdout string, exit int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mypy")
	script := "#!/bin/sh\ncat <<'EOF'\n" + stdout + "EOF\nexit " + strconv.Itoa(exit) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupProject(t *testing.T, checkerStdout string, checkerExit int) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(orig)
		config.ResetConfig()
	})

	t.Setenv("TYPETIGHT_CHECKER", fakeChecker(t, checkerStdout, checkerExit))
	t.Setenv("TYPETIGHT_OUTPUT", "markdown")
	return dir
}

const cleanOutput = "Success: no issues found in 4 source files\n"

func TestInitCommand_WritesConfig(t *testing.T) {
	dir := setupProject(t, cleanOutput, 0)

	cmd := NewInitCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if err != nil {
		t.Fatalf("reading generated config: %v", err)
	}
	if !strings.HasPrefix(string(data), ruleset.HeaderPrefix) {
		t.Errorf("generated config missing header:\n%s", data)
	}

	parsed, err := ruleset.Parse(rules.Default(), data)
	if err != nil {
		t.Fatalf("parsing generated config: %v", err)
	}
	if got, want := parsed.EnabledRules(), rules.Default().Names(); len(got) != len(want) {
		t.Errorf("clean codebase should enable every rule, got %v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "typetight.yaml")); err != nil {
		t.Errorf("init should scaffold typetight.yaml: %v", err)
	}
}

func TestInitCommand_RefusesExistingWithoutOverwrite(t *testing.T) {
	dir := setupProject(t, cleanOutput, 0)
	if err := os.WriteFile(filepath.Join(dir, "mypy.ini"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewInitCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if string(data) != "existing" {
		t.Error("existing file must not be touched without --overwrite")
	}
}

func TestTightenCommand_AlreadyTightest(t *testing.T) {
	dir := setupProject(t, cleanOutput, 0)
	existing := ruleset.Strict(rules.Default()).Marshal("1.0.0")
	if err := os.WriteFile(filepath.Join(dir, "mypy.ini"), existing, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewTightenCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "already the tightest") {
		t.Errorf("expected already-tightest message, got:\n%s", buf.String())
	}

	data, _ := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if !bytes.Equal(data, existing) {
		t.Error("file must be unchanged when nothing can be tightened")
	}
}

func TestTightenCommand_ErrorIfCanTighten(t *testing.T) {
	dir := setupProject(t, cleanOutput, 0)

	loose := ruleset.Strict(rules.Default())
	if err := loose.DisableForModule("app.legacy", rules.CheckUntypedDefs); err != nil {
		t.Fatal(err)
	}
	existing := loose.Marshal("1.0.0")
	if err := os.WriteFile(filepath.Join(dir, "mypy.ini"), existing, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewTightenCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--error-if-can-tighten"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "can be tightened") {
		t.Fatalf("expected can-tighten error, got %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if !bytes.Equal(data, existing) {
		t.Error("file must not be rewritten under --error-if-can-tighten")
	}
}

func TestTightenCommand_AppliesTightening(t *testing.T) {
	dir := setupProject(t, cleanOutput, 0)

	loose := ruleset.Strict(rules.Default())
	if err := loose.DisableForModule("app.legacy", rules.CheckUntypedDefs); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mypy.ini"), loose.Marshal("1.0.0"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewTightenCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ruleset.Parse(rules.Default(), data)
	if err != nil {
		t.Fatalf("parsing rewritten config: %v", err)
	}
	if len(parsed.Modules()) != 0 {
		t.Errorf("clean codebase should drop the stale override, got %v", parsed.Modules())
	}
}

func TestTightenCommand_MissingConfig(t *testing.T) {
	setupProject(t, cleanOutput, 0)

	cmd := NewTightenCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "typetight init") {
		t.Fatalf("expected missing-config guidance, got %v", err)
	}
}

func TestTightenCommand_StaleConfigAborts(t *testing.T) {
	failing := "app/main.py:3: error: Function is missing a type annotation  [no-untyped-def]\n" +
		"Found 1 error in 1 file (checked 4 source files)\n"
	dir := setupProject(t, failing, 1)

	existing := ruleset.Strict(rules.Default()).Marshal("1.0.0")
	if err := os.WriteFile(filepath.Join(dir, "mypy.ini"), existing, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewTightenCommand("1.0.0")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no longer passes") {
		t.Fatalf("expected stale-config error, got %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "mypy.ini"))
	if !bytes.Equal(data, existing) {
		t.Error("stale config must not be modified")
	}
}
