// Package config provides HCL configuration handling for dockwall.
package config

import (
	"fmt"
	"sort"

	"github.com/dockwall/dockwall/internal/iptables"
	"github.com/dockwall/dockwall/internal/logging"
)

// Config is the top-level dockwall configuration.
type Config struct {
	// Backend selects how rule operations take effect: "restore" (staged,
	// atomic), "iptables" (immediate), "null" (dry-run) or "record".
	Backend string `hcl:"backend,optional" json:"backend,omitempty"`

	// IPv6 additionally applies the configuration through ip6tables.
	IPv6 bool `hcl:"ipv6,optional" json:"ipv6,omitempty"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `hcl:"log_level,optional" json:"log_level,omitempty"`

	// Init holds per-table static state seeded into every transaction
	// before computed rules: chain policies and raw rules.
	Init []InitTable `hcl:"init,block" json:"init,omitempty"`
}

// InitTable seeds one table with chain policies and raw rule lines.
type InitTable struct {
	Table    string            `hcl:"table,label" json:"table"`
	Policies map[string]string `hcl:"policies,optional" json:"policies,omitempty"`
	Rules    []string          `hcl:"rules,optional" json:"rules,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:  string(iptables.BackendRestore),
		LogLevel: "info",
	}
}

var validBackends = map[string]iptables.BackendKind{
	string(iptables.BackendExec):    iptables.BackendExec,
	string(iptables.BackendRestore): iptables.BackendRestore,
	string(iptables.BackendNull):    iptables.BackendNull,
	string(iptables.BackendRecord):  iptables.BackendRecord,
}

var validLevels = map[string]logging.Level{
	"debug": logging.LevelDebug,
	"info":  logging.LevelInfo,
	"warn":  logging.LevelWarn,
	"error": logging.LevelError,
}

// applyDefaults fills unset fields with their defaults.
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = string(iptables.BackendRestore)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if _, ok := validBackends[c.Backend]; !ok {
		return fmt.Errorf("unknown backend %q (valid: %s)", c.Backend, joinKeys(validBackends))
	}
	if _, ok := validLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log_level %q (valid: %s)", c.LogLevel, joinKeys(validLevels))
	}
	seen := make(map[string]bool)
	for _, init := range c.Init {
		if init.Table == "" {
			return fmt.Errorf("init block with empty table name")
		}
		if seen[init.Table] {
			return fmt.Errorf("duplicate init block for table %q", init.Table)
		}
		seen[init.Table] = true
	}
	return nil
}

// BackendKind returns the configured backend selector.
func (c *Config) BackendKind() iptables.BackendKind {
	return validBackends[c.Backend]
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return validLevels[c.LogLevel]
}

func joinKeys[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
