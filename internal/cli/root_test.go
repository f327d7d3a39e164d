package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/typetight-labs/typetight/internal/cli/config"
)

func TestRootCmd_Version(t *testing.T) {
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("version output missing %q: %q", Version, buf.String())
	}
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, sub := range []string{"init", "tighten", "rules", "version"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestRootCmd_RejectsUnknownOutputFormat(t *testing.T) {
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"rules", "--output", "yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
