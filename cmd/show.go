package cmd

import (
	"fmt"
	"strings"

	"github.com/dockwall/dockwall/internal/config"
	"github.com/dockwall/dockwall/internal/iptables"
)

// buildStaged stages the configured initialization into a fresh restore
// backend without committing, and returns the serialized restore text.
func buildStaged(cfg *config.Config, version iptables.IPVersion) (string, error) {
	fw := iptables.NewRestore(version)
	if err := seed(fw, cfg); err != nil {
		return "", err
	}
	rules := fw.Rules()
	if len(rules) == 0 {
		return "", nil
	}
	return strings.Join(rules, "\n") + "\n", nil
}

// RunShow prints the restore text that an apply would hand to
// iptables-restore, without touching the host.
func RunShow(configFile string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	versions := []iptables.IPVersion{iptables.IPv4}
	if cfg.IPv6 {
		versions = append(versions, iptables.IPv6)
	}

	for _, version := range versions {
		text, err := buildStaged(cfg, version)
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", version)
		if text == "" {
			fmt.Println("# (no rules)")
			continue
		}
		fmt.Print(text)
	}
	return nil
}
