package ruleset

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/typetight-labs/typetight/internal/rules"
)

// HeaderPrefix marks a config file as generated by this tool. Files without
// it are never overwritten by the tightener.
const HeaderPrefix = "# Autogenerated by typetight"

const (
	globalSection  = "mypy"
	stubSettingKey = "ignore_missing_imports"
)

// Marshal renders the configuration to the persisted ini format. The output
// is deterministic: identical configurations always produce identical bytes.
func (c *Config) Marshal(version string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s v%s\n", HeaderPrefix, version)
	fmt.Fprintf(&buf, "[%s]\n", globalSection)
	for _, name := range c.catalog.Names() {
		fmt.Fprintf(&buf, "%s = %s\n", name, pyBool(c.enabled[name]))
	}
	fmt.Fprintf(&buf, "%s = False\n", stubSettingKey)
	for _, line := range c.ExtraGlobal {
		fmt.Fprintf(&buf, "%s\n", line)
	}

	if modules := c.Modules(); len(modules) > 0 {
		buf.WriteString("\n# First-party modules with relaxed rules\n")
		for _, module := range modules {
			fmt.Fprintf(&buf, "[%s-%s.*]\n", globalSection, module)
			for _, name := range c.DisabledFor(module) {
				fmt.Fprintf(&buf, "%s = False\n", name)
			}
		}
	}

	if stubs := c.StubSuppressions(); len(stubs) > 0 {
		buf.WriteString("\n# Third-party modules lacking type stubs\n")
		for _, module := range stubs {
			fmt.Fprintf(&buf, "[%s-%s.*]\n", globalSection, module)
			fmt.Fprintf(&buf, "%s = True\n", stubSettingKey)
		}
	}

	return buf.Bytes()
}

// Parse reconstructs a configuration from its persisted form. Files not
// produced by this tool, or violating a configuration invariant, are
// rejected outright rather than repaired.
func Parse(cat *rules.Catalog, data []byte) (*Config, error) {
	c := newConfig(cat)

	known := make(map[string]bool)
	for _, name := range cat.Names() {
		known[name] = true
	}

	sawHeader := false
	section := ""
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";"):
			if strings.HasPrefix(line, HeaderPrefix) {
				sawHeader = true
			}
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if err := validateSection(section); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		if !sawHeader {
			return nil, fmt.Errorf("config was not generated by typetight (missing %q header)", HeaderPrefix)
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key = value, got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case section == globalSection:
			if err := c.applyGlobal(known, key, value, raw); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case strings.HasPrefix(section, globalSection+"-"):
			module := strings.TrimSuffix(strings.TrimPrefix(section, globalSection+"-"), ".*")
			if err := c.applyModule(known, module, key, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		default:
			return nil, fmt.Errorf("line %d: setting outside a recognized section", lineNo)
		}
	}

	if !sawHeader {
		return nil, fmt.Errorf("config was not generated by typetight (missing %q header)", HeaderPrefix)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("persisted config violates invariants: %w", err)
	}
	return c, nil
}

func (c *Config) applyGlobal(known map[string]bool, key, value, raw string) error {
	switch {
	case known[key]:
		enabled, err := parsePyBool(value)
		if err != nil {
			return fmt.Errorf("rule %s: %w", key, err)
		}
		if enabled {
			c.enabled[key] = true
		}
	case key == stubSettingKey:
		suppressed, err := parsePyBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if suppressed {
			return fmt.Errorf("global %s = True suppresses stub errors everywhere; suppression must be per-module", stubSettingKey)
		}
	default:
		c.ExtraGlobal = append(c.ExtraGlobal, strings.TrimSpace(raw))
	}
	return nil
}

func (c *Config) applyModule(known map[string]bool, module, key, value string) error {
	if err := validateModuleName(module); err != nil {
		return err
	}

	switch {
	case key == stubSettingKey:
		suppressed, err := parsePyBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if !suppressed {
			return fmt.Errorf("module %s: %s = False is the global default and never written", module, stubSettingKey)
		}
		c.stubs[module] = true
	case known[key]:
		enabled, err := parsePyBool(value)
		if err != nil {
			return fmt.Errorf("rule %s: %w", key, err)
		}
		if enabled {
			return fmt.Errorf("module %s: per-module sections only relax rules, %s = True is not allowed", module, key)
		}
		if c.overrides[module] == nil {
			c.overrides[module] = make(map[string]bool)
		}
		c.overrides[module][key] = true
	default:
		return fmt.Errorf("module %s: unknown setting %q", module, key)
	}
	return nil
}

func validateSection(section string) error {
	if section == globalSection {
		return nil
	}
	if !strings.HasPrefix(section, globalSection+"-") {
		return fmt.Errorf("unrecognized section [%s]", section)
	}
	module := strings.TrimPrefix(section, globalSection+"-")
	if !strings.HasSuffix(module, ".*") {
		return fmt.Errorf("section [%s]: module sections must end in .*", section)
	}
	return nil
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parsePyBool(value string) (bool, error) {
	switch value {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("expected True or False, got %q", value)
	}
}
