package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/typetight-labs/typetight/internal/checker"
	"github.com/typetight-labs/typetight/internal/cli/config"
	"github.com/typetight-labs/typetight/internal/cli/output"
	"github.com/typetight-labs/typetight/internal/pymodule"
	"github.com/typetight-labs/typetight/internal/rules"
	"github.com/typetight-labs/typetight/internal/tighten"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *tighten.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a tightening engine wired
// to the configured checker.
func NewCommandContext(cmd *cobra.Command, version string) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	runner := checker.NewMypyRunner(cfg.Checker, cfg.Paths, version, logger)
	eng := tighten.New(rules.Default(), runner,
		tighten.WithLogger(logger),
		tighten.WithChildLister(&pymodule.TreeIndex{Root: "."}),
		tighten.WithExtraGlobalSettings(cfg.GlobalSettings),
	)

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that never invoke the checker.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration. It uses the loaded config if
// available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	paths := []string{"."}
	if v := os.Getenv("TYPETIGHT_PATHS"); v != "" {
		paths = strings.Split(v, ",")
	}

	return &config.Config{
		Checker:       getEnvOrDefault("TYPETIGHT_CHECKER", config.DefaultChecker),
		Paths:         paths,
		CheckerConfig: getEnvOrDefault("TYPETIGHT_CHECKER_CONFIG", config.DefaultCheckerConfig),
		Verbose:       os.Getenv("TYPETIGHT_VERBOSE") == "true",
		OutputFormat:  getEnvOrDefault("TYPETIGHT_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
