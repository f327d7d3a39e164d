package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typetight-labs/typetight/internal/cli/output"
	"github.com/typetight-labs/typetight/internal/rules"
	"github.com/typetight-labs/typetight/internal/ruleset"
)

// NewTightenCommand creates the tighten command.
func NewTightenCommand(version string) *cobra.Command {
	var errorIfCanTighten bool

	cmd := &cobra.Command{
		Use:   "tighten",
		Short: "Re-derive the configuration and apply any possible tightening",
		Long: `Validate the persisted checker configuration against the current
source, recompute the strictest passing configuration from scratch, and
rewrite the file if the fresh result is tighter.

The codebase must still pass its persisted configuration; if it does not,
the file no longer matches reality and the run aborts without touching it.`,
		Example: `  # Ratchet the configuration after cleanups
  typetight tighten

  # CI guard: fail when tightening is possible but not applied
  typetight tighten --error-if-can-tighten`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd, version)
			r := cmdCtx.Renderer
			path := cmdCtx.Cfg.CheckerConfig

			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no checker configuration at %s; run 'typetight init' first", path)
				}
				return err
			}
			existing, err := ruleset.Parse(rules.Default(), data)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}

			if err := cmdCtx.Engine.ValidateExisting(cmd.Context(), path, existing); err != nil {
				return err
			}

			res, err := cmdCtx.Engine.Tightest(cmd.Context())
			if err != nil {
				return err
			}

			if res.Config.Equal(existing) {
				r.Success("Configuration is already the tightest the codebase satisfies")
				return nil
			}

			if res.Config.TighterThan(existing) {
				renderDelta(r, existing, res.Config)
				if errorIfCanTighten {
					return fmt.Errorf("configuration at %s can be tightened", path)
				}
			}

			if err := os.WriteFile(path, res.Config.Marshal(version), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			renderSummary(r, path, res.Config, res.Probes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&errorIfCanTighten, "error-if-can-tighten", false,
		"Exit nonzero instead of rewriting when tightening is possible")

	return cmd
}

func renderDelta(r *output.Renderer, old, fresh *ruleset.Config) {
	r.Println("")
	r.Println("Configuration can be tightened:")
	r.Printf("  enabled rules:     %d -> %d\n", len(old.EnabledRules()), len(fresh.EnabledRules()))
	r.Printf("  module overrides:  %d -> %d\n", len(old.Modules()), len(fresh.Modules()))
	r.Printf("  stub suppressions: %d -> %d\n", len(old.StubSuppressions()), len(fresh.StubSuppressions()))
	r.Println("")
}
