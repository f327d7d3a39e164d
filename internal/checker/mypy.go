package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/typetight-labs/typetight/internal/ruleset"
)

// Exit codes the checker uses. Anything else is treated as a crash.
const (
	exitClean    = 0
	exitFindings = 1
)

// MypyRunner executes mypy as a subprocess against a candidate
// configuration.
type MypyRunner struct {
	// Executable is the mypy binary to invoke.
	Executable string
	// Paths are the source roots handed to the checker.
	Paths []string
	// Dir is the working directory for the run, "" for the current one.
	Dir string
	// Version is embedded in the generated candidate config header.
	Version string

	Log *slog.Logger
}

// NewMypyRunner builds a runner with the given source paths.
func NewMypyRunner(executable string, paths []string, version string, log *slog.Logger) *MypyRunner {
	if log == nil {
		log = slog.Default()
	}
	return &MypyRunner{
		Executable: executable,
		Paths:      paths,
		Version:    version,
		Log:        log,
	}
}

// Run materializes the configuration to a temp file, invokes the checker,
// and parses its verdict. Exit code 0 means clean, 1 means findings; both
// are successful runs. Everything else is an error.
func (m *MypyRunner) Run(ctx context.Context, cfg *ruleset.Config) (*Report, error) {
	configDir, err := os.MkdirTemp("", "typetight-probe-*")
	if err != nil {
		return nil, fmt.Errorf("creating probe config dir: %w", err)
	}
	defer os.RemoveAll(configDir)

	configPath := filepath.Join(configDir, "mypy.ini")
	if err := os.WriteFile(configPath, cfg.Marshal(m.Version), 0o600); err != nil {
		return nil, fmt.Errorf("writing probe config: %w", err)
	}

	args := []string{"--config-file", configPath, "--show-error-codes", "--no-color-output"}
	args = append(args, m.Paths...)

	cmd := exec.CommandContext(ctx, m.Executable, args...)
	cmd.Dir = m.Dir

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("wiring checker stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("wiring checker stderr: %w", err)
	}

	started := time.Now()
	m.Log.Debug("starting checker run",
		slog.String("executable", m.Executable),
		slog.Any("paths", m.Paths),
		slog.Int("enabled_rules", len(cfg.EnabledRules())))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting checker: %w", err)
	}

	var stdout, stderr bytes.Buffer
	var drain errgroup.Group
	drain.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})
	if err := drain.Wait(); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("reading checker output: %w", err)
	}

	runErr := cmd.Wait()
	elapsed := time.Since(started)

	exitCode := exitClean
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("running checker: %w", runErr)
		}
		exitCode = exitErr.ExitCode()
	}

	switch exitCode {
	case exitClean, exitFindings:
	default:
		return nil, fmt.Errorf("checker crashed (exit %d): %s", exitCode, firstLines(stderr.String(), 5))
	}

	report, err := ParseOutput(stdout.String())
	if err != nil {
		return nil, err
	}

	// The exit code and the parsed findings have to agree; a mismatch means
	// output we failed to account for.
	if exitCode == exitClean && !report.Clean() {
		return nil, fmt.Errorf("checker exited clean but reported %d findings", len(report.Findings))
	}
	if exitCode == exitFindings && report.Clean() {
		return nil, fmt.Errorf("checker exited with findings but none were parsed")
	}

	m.Log.Debug("checker run finished",
		slog.Duration("elapsed", elapsed),
		slog.Int("findings", len(report.Findings)),
		slog.Int("source_files", report.SourceFiles))

	return report, nil
}

func firstLines(s string, n int) string {
	lines := bytes.Split([]byte(s), []byte("\n"))
	if len(lines) > n {
		lines = lines[:n]
	}
	return string(bytes.Join(lines, []byte("\n")))
}
