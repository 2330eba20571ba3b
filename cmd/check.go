package cmd

import (
	"fmt"

	"github.com/dockwall/dockwall/internal/config"
	"github.com/dockwall/dockwall/internal/iptables"
)

// RunCheck validates the configuration file syntax and semantics.
func RunCheck(configFile string, verbose bool) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Println("Configuration valid!")
	fmt.Printf("Backend: %s\n", cfg.Backend)
	fmt.Printf("IPv6: %v\n", cfg.IPv6)
	fmt.Printf("Init tables: %d\n", len(cfg.Init))
	for _, init := range cfg.Init {
		fmt.Printf("  %s: %d policies, %d rules\n", init.Table, len(init.Policies), len(init.Rules))
	}

	if verbose {
		text, err := buildStaged(cfg, iptables.IPv4)
		if err != nil {
			return err
		}
		fmt.Println("\nGenerated restore text (IPv4):")
		if text == "" {
			fmt.Println("(empty)")
		} else {
			fmt.Print(text)
		}
	}

	return nil
}
