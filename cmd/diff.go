package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dockwall/dockwall/internal/config"
	"github.com/dockwall/dockwall/internal/iptables"
)

var counterRE = regexp.MustCompile(`^(:\S+ \S+) \[\d+:\d+\]$`)

// stripNoise normalizes a ruleset dump for comparison: comment lines are
// dropped and live packet/byte counters on policy lines are zeroed.
func stripNoise(s string) string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = counterRE.ReplaceAllString(line, "$1 [0:0]")
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}

// saveBinary returns the dump tool matching the restore tool of a version.
func saveBinary(version iptables.IPVersion) string {
	if version == iptables.IPv6 {
		return "ip6tables-save"
	}
	return "iptables-save"
}

// RunDiff compares the ruleset generated from the configuration against the
// rules currently loaded on the host. Returns an error when they differ.
func RunDiff(configFile string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	versions := []iptables.IPVersion{iptables.IPv4}
	if cfg.IPv6 {
		versions = append(versions, iptables.IPv6)
	}

	differs := false
	for _, version := range versions {
		generated, err := buildStaged(cfg, version)
		if err != nil {
			return err
		}

		runningBytes, err := iptables.DefaultCommandRunner.Output(saveBinary(version))
		if err != nil {
			return fmt.Errorf("failed to read running ruleset: %w", err)
		}

		finalGenerated := stripNoise(generated)
		finalRunning := stripNoise(string(runningBytes))
		if finalGenerated == finalRunning {
			continue
		}
		differs = true

		fmt.Printf("Configuration differs from running state (%s):\n", version)
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(finalGenerated),
			B:        difflib.SplitLines(finalRunning),
			FromFile: "Generated",
			ToFile:   "Running",
			Context:  3,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		fmt.Print(text)
	}

	if differs {
		return fmt.Errorf("configuration differs")
	}
	fmt.Println("No changes detected.")
	return nil
}
