// Package output provides rendering for CLI output with support for
// multiple formats: styled terminal text, markdown for piped output, and
// JSON for machine consumption.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes formatted output to a destination.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto resolves against the out writer
// at construction time.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = resolveAuto(out)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: newStyles(mode == ModeText),
	}
}

func resolveAuto(out io.Writer) Mode {
	if f, ok := out.(*os.File); ok {
		if termenv.NewOutput(f).EnvNoColor() {
			return ModeMarkdown
		}
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return ModeText
		}
	}
	return ModeMarkdown
}

// EffectiveMode returns the resolved mode (never ModeAuto).
func (r *Renderer) EffectiveMode() Mode {
	return r.mode
}

// Styles returns the style set for the current mode. In non-text modes the
// styles render as plain text.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the underlying output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Println writes a line to the output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a section header at the given level.
func (r *Renderer) Header(level int, text string) {
	switch {
	case r.mode == ModeMarkdown && level == 1:
		r.Println("# " + text)
	case r.mode == ModeMarkdown:
		r.Println("## " + text)
	case level == 1:
		r.Println(r.styles.Header1.Render(text))
	default:
		r.Println(r.styles.Header2.Render(text))
	}
}

// Success writes a success message.
func (r *Renderer) Success(s string) {
	if r.mode == ModeText {
		r.Println(r.styles.Success.Render("✓ " + s))
		return
	}
	r.Println(s)
}

// Warning writes a warning message to the error writer.
func (r *Renderer) Warning(s string) {
	if r.mode == ModeText {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+s))
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "warning: "+s)
}

// Error writes an error message to the error writer.
func (r *Renderer) Error(s string) {
	if r.mode == ModeText {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+s))
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "error: "+s)
}

// StatusLine writes a name/status pair, with optional extra detail.
func (r *Renderer) StatusLine(name, status, extra string) {
	line := fmt.Sprintf("  %-40s %s", name, status)
	if r.mode == ModeText {
		switch status {
		case "success", "ok", "pass":
			line = fmt.Sprintf("  %-40s %s", name, r.styles.Success.Render(status))
		case "fail", "error":
			line = fmt.Sprintf("  %-40s %s", name, r.styles.Error.Render(status))
		}
	}
	if extra != "" {
		line += "  " + extra
	}
	r.Println(line)
}

// JSON encodes v to the output with indentation.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
