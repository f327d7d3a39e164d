// Package tighten implements the rule-tightening search: starting from the
// full rule catalog, disable exactly the rules and modules the checker
// proves the codebase cannot satisfy, and nothing more.
package tighten

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/typetight-labs/typetight/internal/checker"
	"github.com/typetight-labs/typetight/internal/pymodule"
	"github.com/typetight-labs/typetight/internal/rules"
	"github.com/typetight-labs/typetight/internal/ruleset"
)

// Engine drives the tightening state machine. It owns the candidate
// configuration for the duration of a run; the checker only ever sees
// read-only snapshots.
type Engine struct {
	catalog *rules.Catalog
	runner  checker.Runner
	// lister, when set, lets the engine collapse complete sibling groups of
	// override modules into their parent package.
	lister pymodule.ChildLister
	// extraGlobal lines are carried into every candidate configuration, so
	// probes run with the user's passthrough checker settings in effect.
	extraGlobal []string
	log         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithChildLister enables parent-package collapsing of override modules.
func WithChildLister(l pymodule.ChildLister) Option {
	return func(e *Engine) { e.lister = l }
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithExtraGlobalSettings carries verbatim global checker settings into
// every candidate configuration.
func WithExtraGlobalSettings(lines []string) Option {
	return func(e *Engine) { e.extraGlobal = lines }
}

// New builds an engine over a catalog and a checker runner.
func New(cat *rules.Catalog, runner checker.Runner, opts ...Option) *Engine {
	e := &Engine{catalog: cat, runner: runner, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a completed tightening run.
type Result struct {
	// Config is the tightest configuration the codebase satisfies. It has
	// been validated by a passing checker run.
	Config *ruleset.Config
	// Probes is the number of checker invocations the run took.
	Probes int
}

// Tightest computes the strictest configuration the codebase currently
// satisfies. The search is deterministic: an unchanged codebase always
// produces the same configuration.
func (e *Engine) Tightest(ctx context.Context) (*Result, error) {
	log := e.log.With(slog.String("run_id", uuid.NewString()))
	probes := 0

	probe := func(stage string, cfg *ruleset.Config) (*checker.Report, error) {
		probes++
		log.Info("running checker", slog.String("stage", stage), slog.Int("probe", probes))
		report, err := e.runner.Run(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s probe: %w", stage, err)
		}
		log.Debug("checker finished",
			slog.String("stage", stage),
			slog.Int("findings", len(report.Findings)))
		return report, nil
	}

	// Baseline check. The codebase must be clean under the non-negotiable
	// rules alone; missing stubs are the only finding class tolerated here,
	// since suppression resolves them later without loosening anything.
	baseline := ruleset.Baseline(e.catalog)
	baseline.ExtraGlobal = append([]string(nil), e.extraGlobal...)
	report, err := probe("baseline", baseline)
	if err != nil {
		return nil, err
	}
	if findings := nonStubFindings(report); len(findings) > 0 {
		return nil, &BaselineError{Findings: findings}
	}

	// Strict probe: everything on, nothing suppressed. One run reports every
	// violation of the full rule set.
	cfg := ruleset.Strict(e.catalog)
	cfg.ExtraGlobal = append([]string(nil), e.extraGlobal...)
	report, err = probe("strict", cfg)
	if err != nil {
		return nil, err
	}
	class := checker.Classify(e.catalog, report)

	// Stub resolution. Suppressing a third-party module with no stubs never
	// disables a meaningful check, so suppression is unconditional; the
	// re-probe refreshes the violation set with import errors out of the way.
	if len(class.MissingStubs) > 0 {
		e.suppressStubs(log, cfg, class.MissingStubs)
		report, err = probe("stub-suppressed", cfg)
		if err != nil {
			return nil, err
		}
		class = checker.Classify(e.catalog, report)
	}

	// Per-module narrowing from the final probe's violation set.
	if err := e.narrow(log, cfg, class); err != nil {
		return nil, err
	}

	// Validate, retrying the narrowing once on failure. The retry absorbs
	// findings only the narrowed configuration can surface, unused ignore
	// comments above all.
	report, err = probe("validate", cfg)
	if err != nil {
		return nil, err
	}
	if !report.Clean() {
		class = checker.Classify(e.catalog, report)
		log.Warn("narrowed configuration failed validation, retrying narrowing",
			slog.Int("findings", len(report.Findings)))
		if err := e.narrow(log, cfg, class); err != nil {
			return nil, err
		}
		report, err = probe("revalidate", cfg)
		if err != nil {
			return nil, err
		}
		if !report.Clean() {
			return nil, &ValidationError{Findings: report.Findings}
		}
	}

	log.Info("tightening complete",
		slog.Int("probes", probes),
		slog.Int("enabled_rules", len(cfg.EnabledRules())),
		slog.Int("override_modules", len(cfg.Modules())),
		slog.Int("stub_suppressions", len(cfg.StubSuppressions())))

	return &Result{Config: cfg, Probes: probes}, nil
}

// ValidateExisting re-runs the checker against an already persisted
// configuration. A failing run means the file no longer matches the source.
func (e *Engine) ValidateExisting(ctx context.Context, path string, cfg *ruleset.Config) error {
	report, err := e.runner.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("validating persisted config: %w", err)
	}
	if !report.Clean() {
		return &StaleConfigError{Path: path, Findings: report.Findings}
	}
	return nil
}

// narrow applies one classification to the configuration: suppress newly
// found stubs, then disable each violated rule in exactly the modules that
// violated it. Unknown findings abort; a violated baseline rule here means
// the checker contradicted its own baseline verdict.
func (e *Engine) narrow(log *slog.Logger, cfg *ruleset.Config, class *checker.Classification) error {
	if len(class.Unknown) > 0 {
		return &UnknownViolationError{Findings: class.Unknown}
	}
	if len(class.MissingStubs) > 0 {
		e.suppressStubs(log, cfg, class.MissingStubs)
	}

	for _, rule := range class.Rules(e.catalog) {
		r, _ := e.catalog.Get(rule)
		if r.Baseline {
			var findings []checker.Finding
			for _, v := range class.Violations[rule] {
				findings = append(findings, v.Finding)
			}
			return &BaselineError{Findings: findings}
		}

		if !r.PerModule {
			log.Info("disabling global-only rule", slog.String("rule", rule),
				slog.Int("violations", len(class.Violations[rule])))
			if err := cfg.DisableGlobal(rule); err != nil {
				return err
			}
			continue
		}

		modules, err := e.overrideModules(class.Modules(rule))
		if err != nil {
			return err
		}
		log.Info("disabling rule per module",
			slog.String("rule", rule), slog.Any("modules", modules))
		for _, module := range modules {
			if err := cfg.DisableForModule(module, rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// overrideModules reduces a violating-module set to its minimum covering
// form, collapsing complete sibling groups into their parent when a source
// layout is available.
func (e *Engine) overrideModules(modules []string) ([]string, error) {
	modules = pymodule.MinCover(modules)
	if e.lister == nil {
		return modules, nil
	}
	collapsed, err := pymodule.CollapseSiblings(modules, e.lister)
	if err != nil {
		return nil, fmt.Errorf("collapsing override modules: %w", err)
	}
	return collapsed, nil
}

func (e *Engine) suppressStubs(log *slog.Logger, cfg *ruleset.Config, modules []string) {
	var added []string
	for _, m := range pymodule.MinCover(modules) {
		if cfg.SuppressesStubs(m) {
			continue
		}
		cfg.SuppressStubs(m)
		added = append(added, m)
	}
	if len(added) > 0 {
		log.Info("suppressing missing-stub errors", slog.Any("modules", added))
	}
}

func nonStubFindings(report *checker.Report) []checker.Finding {
	var out []checker.Finding
	for _, f := range report.Findings {
		if checker.IsMissingStub(f.Message) {
			continue
		}
		out = append(out, f)
	}
	return out
}
