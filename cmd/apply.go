// Package cmd holds the entry points behind the dockwall CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"github.com/dockwall/dockwall/internal/config"
	"github.com/dockwall/dockwall/internal/iptables"
	"github.com/dockwall/dockwall/internal/logging"
)

// RunApply loads the configuration, drives a firewall backend through the
// configured initialization and commits. With dryRun the null backend is
// used regardless of the configured one.
func RunApply(configFile string, dryRun bool) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.SetDefault(logging.New(logging.Config{Level: cfg.Level()}))
	log := logging.WithComponent("apply")

	kind := cfg.BackendKind()
	if dryRun {
		kind = iptables.BackendNull
		log.Info("dry run, no rules will be applied")
	}

	versions := []iptables.IPVersion{iptables.IPv4}
	if cfg.IPv6 {
		versions = append(versions, iptables.IPv6)
	}

	for _, version := range versions {
		fw, err := iptables.New(kind, version)
		if err != nil {
			return err
		}
		if err := seed(fw, cfg); err != nil {
			return fmt.Errorf("staging %s rules: %w", version, err)
		}
		if err := fw.Commit(); err != nil {
			return fmt.Errorf("applying %s rules: %w", version, err)
		}
		log.Info("rules applied", "version", version.String(), "backend", string(kind))
	}

	return nil
}

// seed replays the configured initialization through the capability
// interface: chain policies first, then raw rules in file order.
func seed(fw iptables.Firewall, cfg *config.Config) error {
	for _, init := range cfg.Init {
		chains := make([]string, 0, len(init.Policies))
		for chain := range init.Policies {
			chains = append(chains, chain)
		}
		sort.Strings(chains)
		for _, chain := range chains {
			if err := fw.SetPolicy(init.Table, chain, init.Policies[chain]); err != nil {
				return fmt.Errorf("set policy %s/%s: %w", init.Table, chain, err)
			}
		}
		for _, rule := range init.Rules {
			if _, err := fw.Execute(init.Table, rule); err != nil {
				return fmt.Errorf("execute in table %s: %w", init.Table, err)
			}
		}
	}
	return nil
}
