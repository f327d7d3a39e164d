package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/typetight-labs/typetight/internal/cli/output"
	"github.com/typetight-labs/typetight/internal/rules"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Format string // Output format override
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-name]",
		Short: "List the managed checker rules",
		Long: `List every mypy rule the tightener manages, with its scope and
dependencies.

Baseline rules are non-negotiable: a codebase that fails them cannot be
tightened at all. Per-module rules can be relaxed for individual modules;
global-only rules are either on or off for the whole project.`,
		Example: `  # List all rules
  typetight rules

  # Show details for one rule
  typetight rules disallow_incomplete_defs

  # Machine-readable listing
  typetight rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	cat := rules.Default()
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, cat)
	case output.ModeMarkdown:
		listRulesMarkdown(r, cat)
		return nil
	default:
		listRulesText(r, cat)
		return nil
	}
}

func listRulesText(r *output.Renderer, cat *rules.Catalog) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Managed Rules (%d)", len(cat.Names()))))
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Scope", "Requires", "Description"})
	for _, rule := range cat.Rules() {
		t.AppendRow(table.Row{rule.Name, ruleScope(rule), strings.Join(rule.Requires, ", "), rule.Description})
	}
	t.Render()

	r.Println("")
	r.Println(styles.Muted.Render("Use 'typetight rules <rule-name>' for details"))
	r.Println("")
}

func listRulesMarkdown(r *output.Renderer, cat *rules.Catalog) {
	r.Println("# Managed Rules")
	r.Println("")
	for _, rule := range cat.Rules() {
		r.Printf("- **%s** (%s) - %s\n", rule.Name, ruleScope(rule), rule.Description)
	}
	r.Println("")
}

// RulesJSONOutput is the JSON output structure for the rules listing.
type RulesJSONOutput struct {
	Rules []RuleJSON `json:"rules"`
	Count int        `json:"count"`
}

// RuleJSON is one rule in JSON output.
type RuleJSON struct {
	Name        string   `json:"name"`
	Baseline    bool     `json:"baseline"`
	PerModule   bool     `json:"per_module"`
	Requires    []string `json:"requires,omitempty"`
	Description string   `json:"description"`
}

func listRulesJSON(r *output.Renderer, cat *rules.Catalog) error {
	out := RulesJSONOutput{Count: len(cat.Names())}
	for _, rule := range cat.Rules() {
		out.Rules = append(out.Rules, RuleJSON{
			Name:        rule.Name,
			Baseline:    rule.Baseline,
			PerModule:   rule.PerModule,
			Requires:    rule.Requires,
			Description: rule.Description,
		})
	}
	return r.JSON(out)
}

func showRule(cmd *cobra.Command, name string, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	cat := rules.Default()
	rule, ok := cat.Get(name)
	if !ok {
		return fmt.Errorf("rule %q not found", name)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(RuleJSON{
			Name:        rule.Name,
			Baseline:    rule.Baseline,
			PerModule:   rule.PerModule,
			Requires:    rule.Requires,
			Description: rule.Description,
		})
	}

	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render(rule.Name))
	r.Println("")
	r.Printf("  %s: %s\n", styles.Bold.Render("Scope"), ruleScope(rule))
	if len(rule.Requires) > 0 {
		r.Printf("  %s: %s\n", styles.Bold.Render("Requires"), strings.Join(rule.Requires, ", "))
	}
	if deps := dependentsOf(cat, rule.Name); len(deps) > 0 {
		r.Printf("  %s: %s\n", styles.Bold.Render("Required by"), strings.Join(deps, ", "))
	}
	if codes := bindingCodes(cat, rule.Name); len(codes) > 0 {
		r.Printf("  %s: %s\n", styles.Bold.Render("Error codes"), strings.Join(codes, ", "))
	}
	r.Println("")
	r.Println("  " + rule.Description)
	r.Println("")
	return nil
}

func ruleScope(rule rules.Rule) string {
	switch {
	case rule.Baseline:
		return "baseline"
	case rule.PerModule:
		return "per-module"
	default:
		return "global-only"
	}
}

func dependentsOf(cat *rules.Catalog, name string) []string {
	var out []string
	for _, dep := range cat.Dependents(name) {
		if dep != name {
			out = append(out, dep)
		}
	}
	return out
}

func bindingCodes(cat *rules.Catalog, name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range cat.BindingsFor(name) {
		code := b.Code
		if code == "" {
			code = "(uncoded)"
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}
