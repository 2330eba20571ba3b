package iptables

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dockwall/dockwall/internal/logging"
	"github.com/dockwall/dockwall/internal/metrics"
)

// Exec applies every operation immediately through the iptables binary. Each
// call maps one-to-one onto a host-level invocation and returns its real
// result. There is no staging and no atomicity across a sequence of calls: a
// failure mid-sequence leaves the host in an intermediate state.
//
// Not safe for concurrent use.
type Exec struct {
	bin    string
	runner CommandRunner
	log    *logging.Logger
}

// NewExec creates an immediate backend for the given IP version.
func NewExec(version IPVersion) *Exec {
	return &Exec{
		bin:    version.binary(),
		runner: DefaultCommandRunner,
		log:    logging.WithComponent("iptables"),
	}
}

var _ Firewall = (*Exec)(nil)

// run invokes the iptables binary against a table.
func (e *Exec) run(op, table string, args ...string) error {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), op).Inc()
	argv := append([]string{"-t", table}, args...)
	e.log.Debug("exec", "bin", e.bin, "args", strings.Join(argv, " "))
	return e.runner.Run(e.bin, argv...)
}

// ruleArgs splits an opaque rule string into arguments. Rule text is treated
// as a whitespace-separated token sequence; it is not parsed or validated.
func ruleArgs(rule string) []string {
	return strings.Fields(rule)
}

// GetPolicy reads the chain's policy from the "-S <chain>" listing. Chains
// without a policy (user-defined chains) report "-".
func (e *Exec) GetPolicy(table, chain string) (string, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "GetPolicy").Inc()
	out, err := e.runner.Output(e.bin, "-t", table, "-S", chain)
	if err != nil {
		return "", fmt.Errorf("get policy of %s/%s: %w", table, chain, err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == "-P" && fields[1] == chain {
			return fields[2], nil
		}
		if len(fields) >= 2 && fields[0] == "-N" && fields[1] == chain {
			return unsetPolicy, nil
		}
	}
	return "", fmt.Errorf("no policy found for %s/%s", table, chain)
}

// SetPolicy sets the chain's default policy.
func (e *Exec) SetPolicy(table, chain, policy string) error {
	return e.run("SetPolicy", table, "-P", chain, policy)
}

// Execute runs a raw command against the table and returns its output.
func (e *Exec) Execute(table, command string) ([]byte, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "Execute").Inc()
	argv := append([]string{"-t", table}, strings.Fields(command)...)
	return e.runner.Output(e.bin, argv...)
}

// Exists checks for the rule via "-C". A non-zero exit is reported as the
// rule not existing.
func (e *Exec) Exists(table, chain, rule string) (bool, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "Exists").Inc()
	args := append([]string{"-t", table, "-C", chain}, ruleArgs(rule)...)
	if err := e.runner.Run(e.bin, args...); err != nil {
		return false, nil
	}
	return true, nil
}

// ChainExists checks for the chain by listing it.
func (e *Exec) ChainExists(table, chain string) (bool, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "ChainExists").Inc()
	if _, err := e.runner.Output(e.bin, "-t", table, "-S", chain); err != nil {
		return false, nil
	}
	return true, nil
}

// Insert inserts the rule at position (1-based).
func (e *Exec) Insert(table, chain, rule string, position int) error {
	args := append([]string{"-I", chain, strconv.Itoa(position)}, ruleArgs(rule)...)
	return e.run("Insert", table, args...)
}

// InsertUnique inserts the rule at position unless it already exists.
func (e *Exec) InsertUnique(table, chain, rule string, position int) error {
	exists, err := e.Exists(table, chain, rule)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return e.Insert(table, chain, rule, position)
}

// Replace replaces the rule at position.
func (e *Exec) Replace(table, chain, rule string, position int) error {
	args := append([]string{"-R", chain, strconv.Itoa(position)}, ruleArgs(rule)...)
	return e.run("Replace", table, args...)
}

// Append appends the rule to the chain.
func (e *Exec) Append(table, chain, rule string) error {
	args := append([]string{"-A", chain}, ruleArgs(rule)...)
	return e.run("Append", table, args...)
}

// AppendUnique appends the rule, failing if it already exists.
func (e *Exec) AppendUnique(table, chain, rule string) error {
	exists, err := e.Exists(table, chain, rule)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("rule already exists in %s/%s: %s", table, chain, rule)
	}
	return e.Append(table, chain, rule)
}

// AppendReplace deletes the rule if present, then appends it.
func (e *Exec) AppendReplace(table, chain, rule string) error {
	exists, err := e.Exists(table, chain, rule)
	if err != nil {
		return err
	}
	if exists {
		if err := e.Delete(table, chain, rule); err != nil {
			return err
		}
	}
	return e.Append(table, chain, rule)
}

// Delete deletes one occurrence of the rule.
func (e *Exec) Delete(table, chain, rule string) error {
	args := append([]string{"-D", chain}, ruleArgs(rule)...)
	return e.run("Delete", table, args...)
}

// DeleteAll deletes the rule for as long as it exists.
func (e *Exec) DeleteAll(table, chain, rule string) error {
	for {
		exists, err := e.Exists(table, chain, rule)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		if err := e.Delete(table, chain, rule); err != nil {
			return err
		}
	}
}

// List lists the rules of the chain in iptables-save syntax.
func (e *Exec) List(table, chain string) ([]string, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "List").Inc()
	return e.listLines(table, "-S", chain)
}

// ListTable lists all rules of the table.
func (e *Exec) ListTable(table string) ([]string, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "ListTable").Inc()
	return e.listLines(table, "-S")
}

// ListChains returns the names of the table's chains, parsed from the policy
// and chain-declaration lines of the full listing.
func (e *Exec) ListChains(table string) ([]string, error) {
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendExec), "ListChains").Inc()
	lines, err := e.listLines(table, "-S")
	if err != nil {
		return nil, err
	}
	var chains []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) >= 2 && (fields[0] == "-P" || fields[0] == "-N") {
			chains = append(chains, fields[1])
		}
	}
	return chains, nil
}

func (e *Exec) listLines(table string, args ...string) ([]string, error) {
	argv := append([]string{"-t", table}, args...)
	out, err := e.runner.Output(e.bin, argv...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}

// NewChain creates a user-defined chain.
func (e *Exec) NewChain(table, chain string) error {
	return e.run("NewChain", table, "-N", chain)
}

// FlushChain deletes all rules in the chain.
func (e *Exec) FlushChain(table, chain string) error {
	return e.run("FlushChain", table, "-F", chain)
}

// RenameChain renames a chain.
func (e *Exec) RenameChain(table, oldChain, newChain string) error {
	return e.run("RenameChain", table, "-E", oldChain, newChain)
}

// DeleteChain deletes a user-defined chain.
func (e *Exec) DeleteChain(table, chain string) error {
	return e.run("DeleteChain", table, "-X", chain)
}

// FlushTable flushes all chains in the table.
func (e *Exec) FlushTable(table string) error {
	return e.run("FlushTable", table, "-F")
}

// Commit is a no-op: every prior call already took effect.
func (e *Exec) Commit() error {
	return nil
}
