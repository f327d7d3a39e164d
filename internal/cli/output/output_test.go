package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRenderer_ExplicitModes(t *testing.T) {
	var buf bytes.Buffer
	for _, mode := range []Mode{ModeText, ModeMarkdown, ModeJSON} {
		r := NewRenderer(&buf, &buf, mode)
		if r.EffectiveMode() != mode {
			t.Errorf("EffectiveMode() = %q, want %q", r.EffectiveMode(), mode)
		}
	}
}

func TestNewRenderer_AutoOnBufferIsMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeAuto)
	if r.EffectiveMode() != ModeMarkdown {
		t.Errorf("EffectiveMode() = %q, want markdown for non-TTY", r.EffectiveMode())
	}
}

func TestHeader_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)
	r.Header(1, "Title")
	r.Header(2, "Section")

	got := buf.String()
	if !strings.Contains(got, "# Title\n") || !strings.Contains(got, "## Section\n") {
		t.Errorf("unexpected header output:\n%s", got)
	}
}

func TestStatusLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)
	r.StatusLine("mypy.ini", "success", "9 rules")

	got := buf.String()
	if !strings.Contains(got, "mypy.ini") || !strings.Contains(got, "9 rules") {
		t.Errorf("unexpected status line: %q", got)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)
	if err := r.JSON(map[string]int{"rules": 9}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\"rules\": 9") {
		t.Errorf("unexpected JSON output: %q", buf.String())
	}
}

func TestWarningGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)
	r.Warning("stub suppression grew")

	if out.Len() != 0 {
		t.Errorf("warning leaked to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "stub suppression grew") {
		t.Errorf("warning missing from stderr: %q", errOut.String())
	}
}
