package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dockwall/dockwall/cmd"
	"github.com/dockwall/dockwall/internal/brand"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		dryRun := applyFlags.Bool("dry-run", false, "Dry run - stage rules without applying")
		applyFlags.BoolVar(dryRun, "n", false, "Dry run (short)")

		configFile := applyFlags.String("config", brand.DefaultConfigPath(), "Configuration file")
		applyFlags.StringVar(configFile, "c", brand.DefaultConfigPath(), "Configuration file (short)")

		applyFlags.Parse(os.Args[2:])

		if len(applyFlags.Args()) > 0 {
			*configFile = applyFlags.Arg(0)
		}

		if err := cmd.RunApply(*configFile, *dryRun); err != nil {
			fmt.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		configFile := brand.DefaultConfigPath()
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(configFile, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		configFile := brand.DefaultConfigPath()
		if len(os.Args) > 2 {
			configFile = os.Args[2]
		}
		if err := cmd.RunShow(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Show failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		configFile := brand.DefaultConfigPath()
		if len(os.Args) > 2 {
			configFile = os.Args[2]
		}
		if err := cmd.RunDiff(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Printf("%s version %s\n", brand.Name, brand.Version)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  apply     Apply the configured ruleset to the host
            Options: --dry-run (-n), --config (-c) <file>
  check     Validate configuration file
            Options: --verbose (-v)
  show      Print the generated restore text without applying
  diff      Compare generated rules against the running ruleset
  version   Print version information

Examples:
  %s apply /etc/%s/%s
  %s check -v myconfig.hcl
  %s show myconfig.hcl

For command-specific help: %s <command> -h
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.ConfigFileName,
		brand.LowerName, brand.LowerName,
		brand.LowerName)
}
