// Package config provides configuration management for the typetight CLI.
//
// Configuration is layered: defaults, then typetight.yaml, then TYPETIGHT_*
// environment variables, then command-line flags.
package config

import "fmt"

// Config holds all CLI configuration options.
type Config struct {
	// Checker is the type checker executable to invoke.
	Checker string `koanf:"checker"`
	// Paths are the source roots handed to the checker.
	Paths []string `koanf:"paths"`
	// CheckerConfig is where the generated checker configuration lives.
	CheckerConfig string `koanf:"checker_config"`
	// GlobalSettings are verbatim "key = value" lines carried into the
	// global section of the generated configuration, for checker settings
	// outside the managed rule set (plugins above all).
	GlobalSettings []string `koanf:"global_settings"`
	Verbose        bool     `koanf:"verbose"`
	OutputFormat   string   `koanf:"output"`
}

// Default configuration values.
const (
	DefaultChecker       = "mypy"
	DefaultCheckerConfig = "mypy.ini"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Validate checks the configuration for values no command could work with.
func (c *Config) Validate() error {
	if c.Checker == "" {
		return fmt.Errorf("checker executable must not be empty")
	}
	if len(c.Paths) == 0 {
		return fmt.Errorf("at least one source path is required")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (want auto, text, markdown, or json)", c.OutputFormat)
	}
	return nil
}
