package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/typetight-labs/typetight/internal/cli/config"
	"github.com/typetight-labs/typetight/internal/cli/output"
	"github.com/typetight-labs/typetight/internal/ruleset"
)

// NewInitCommand creates the init command.
func NewInitCommand(version string) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate the strictest passing checker configuration",
		Long: `Discover the strictest mypy configuration the codebase currently
satisfies and write it out.

The search runs mypy several times: once with baseline rules only (the
codebase must pass these or nothing can be generated), once with every rule
enabled to collect violations, and once to validate the narrowed result.
Missing third-party stubs are suppressed per module automatically.`,
		Example: `  # Generate mypy.ini for the current project
  typetight init

  # Regenerate, replacing the existing file
  typetight init --overwrite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd, version)

			path := cmdCtx.Cfg.CheckerConfig
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s already exists. Use --overwrite to regenerate, or 'typetight tighten' to update it", path)
			}

			res, err := cmdCtx.Engine.Tightest(cmd.Context())
			if err != nil {
				return err
			}

			if err := os.WriteFile(path, res.Config.Marshal(version), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			if err := scaffoldProjectConfig(cmdCtx); err != nil {
				return err
			}

			renderSummary(cmdCtx.Renderer, path, res.Config, res.Probes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing checker configuration")

	return cmd
}

// scaffoldProjectConfig writes a starter typetight.yaml when the project has
// none, so later runs pick up the same checker and paths.
func scaffoldProjectConfig(cmdCtx *CommandContext) error {
	if config.GetConfigFileUsed() != "" {
		return nil
	}
	if _, err := os.Stat("typetight.yaml"); err == nil {
		return nil
	}

	starter := struct {
		Checker       string   `yaml:"checker"`
		Paths         []string `yaml:"paths"`
		CheckerConfig string   `yaml:"checker_config"`
	}{
		Checker:       cmdCtx.Cfg.Checker,
		Paths:         cmdCtx.Cfg.Paths,
		CheckerConfig: cmdCtx.Cfg.CheckerConfig,
	}

	body, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("rendering typetight.yaml: %w", err)
	}
	content := append([]byte("# typetight project configuration\n"), body...)
	if err := os.WriteFile("typetight.yaml", content, 0o644); err != nil {
		return fmt.Errorf("writing typetight.yaml: %w", err)
	}
	return nil
}

func renderSummary(r *output.Renderer, path string, cfg *ruleset.Config, probes int) {
	r.Println("")
	r.StatusLine(path, "success", fmt.Sprintf("%d checker runs", probes))
	r.Println("")
	r.Printf("Enabled rules:     %d\n", len(cfg.EnabledRules()))
	r.Printf("Module overrides:  %d\n", len(cfg.Modules()))
	r.Printf("Stub suppressions: %d\n", len(cfg.StubSuppressions()))
	r.Println("")
	r.Success("Checker configuration written to " + path)
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Commit " + path + " so CI enforces the discovered rule set")
	r.Println("  2. Run 'typetight tighten' after cleanups to ratchet further")
	r.Println("  3. Run 'typetight tighten --error-if-can-tighten' in CI to catch slack")
}
