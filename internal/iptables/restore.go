package iptables

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dockwall/dockwall/internal/clock"
	"github.com/dockwall/dockwall/internal/logging"
	"github.com/dockwall/dockwall/internal/metrics"
)

// unsetPolicy is the sentinel emitted for chains that were referenced but
// never given an explicit policy. iptables-restore treats it as "no policy"
// (user-defined chain).
const unsetPolicy = "-"

// stagedRule is one directive line, optionally associated with a chain.
// Free-standing directives such as a whole-table flush have no chain.
type stagedRule struct {
	chain    string
	hasChain bool
	text     string
}

// stagedTable holds the pending state for one table: the recorded per-chain
// policies and the directive lines in insertion order.
type stagedTable struct {
	policies map[string]string
	rules    []stagedRule
}

// Restore stages operations into an in-memory transaction and applies them
// atomically on Commit via iptables-restore. Mutating calls never touch the
// host; read calls answer from the staged transaction only.
//
// Committing recreates every table the transaction touches in its entirety:
// rules in those tables that were created externally will be removed. Seed
// any required static rules through the configured initialization so they
// become part of the transaction.
//
// Not safe for concurrent use.
type Restore struct {
	cmd    string
	runner CommandRunner
	clk    clock.Clock
	log    *logging.Logger
	tables map[string]*stagedTable
}

// NewRestore creates a staging backend for the given IP version. The host is
// not touched until Commit.
func NewRestore(version IPVersion) *Restore {
	return &Restore{
		cmd:    version.restoreBinary(),
		runner: DefaultCommandRunner,
		clk:    &clock.RealClock{},
		log:    logging.WithComponent("iptables"),
		tables: make(map[string]*stagedTable),
	}
}

var _ Firewall = (*Restore)(nil)

// table returns the staged state for a table, creating it on first use.
func (r *Restore) table(name string) *stagedTable {
	t, ok := r.tables[name]
	if !ok {
		t = &stagedTable{policies: make(map[string]string)}
		r.tables[name] = t
	}
	return t
}

// fillDefaultPolicy records the unset sentinel for a chain unless a policy
// is already present. Explicit SetPolicy calls are never overwritten here.
func (t *stagedTable) fillDefaultPolicy(chain string) {
	if _, ok := t.policies[chain]; !ok {
		t.policies[chain] = unsetPolicy
	}
}

// stage pushes a chain-associated directive and fills the chain's default
// policy if unset.
func (r *Restore) stage(op, table, chain, text string) {
	t := r.table(table)
	t.fillDefaultPolicy(chain)
	t.rules = append(t.rules, stagedRule{chain: chain, hasChain: true, text: text})
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendRestore), op).Inc()
	metrics.Get().StagedDirectives.Inc()
}

// stageFree pushes a directive with no chain association.
func (r *Restore) stageFree(op, table, text string) {
	t := r.table(table)
	t.rules = append(t.rules, stagedRule{text: text})
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendRestore), op).Inc()
	metrics.Get().StagedDirectives.Inc()
}

// Append stages "-A <chain> <rule>".
func (r *Restore) Append(table, chain, rule string) error {
	r.stage("Append", table, chain, fmt.Sprintf("-A %s %s", chain, rule))
	return nil
}

// Delete stages "-D <chain> <rule>". The staged transaction is a write-only
// event log: no check is made that a matching entry exists; the directive is
// interpreted by iptables-restore at commit time.
func (r *Restore) Delete(table, chain, rule string) error {
	r.stage("Delete", table, chain, fmt.Sprintf("-D %s %s", chain, rule))
	return nil
}

// FlushChain stages "-F <chain>".
func (r *Restore) FlushChain(table, chain string) error {
	r.stage("FlushChain", table, chain, fmt.Sprintf("-F %s", chain))
	return nil
}

// FlushTable stages a table-wide "-F".
func (r *Restore) FlushTable(table string) error {
	r.stageFree("FlushTable", table, "-F")
	return nil
}

// SetPolicy records the policy for a chain, overwriting any prior value.
// This is the one write path that does not respect fill-only-if-absent.
func (r *Restore) SetPolicy(table, chain, policy string) error {
	r.table(table).policies[chain] = policy
	metrics.Get().OperationsTotal.WithLabelValues(string(BackendRestore), "SetPolicy").Inc()
	return nil
}

// NewChain creates a chain. In the restore file format a chain comes into
// existence through its policy line (":CHAIN - [0:0]"), so creating a chain
// is the same as recording the unset policy for it.
func (r *Restore) NewChain(table, chain string) error {
	return r.SetPolicy(table, chain, unsetPolicy)
}

// AppendReplace stages "-A <chain> <rule>" unless an identical directive with
// the same chain association is already staged, in which case nothing
// changes. This gives append-only idempotence without needing Delete.
func (r *Restore) AppendReplace(table, chain, rule string) error {
	text := fmt.Sprintf("-A %s %s", chain, rule)
	t := r.table(table)
	for _, sr := range t.rules {
		if sr.hasChain && sr.chain == chain && sr.text == text {
			return nil
		}
	}
	r.stage("AppendReplace", table, chain, text)
	return nil
}

// Execute stages a raw, chain-less directive. The returned output is empty:
// no process runs until Commit.
func (r *Restore) Execute(table, command string) ([]byte, error) {
	r.stageFree("Execute", table, command)
	return nil, nil
}

// List returns the staged directives associated with the chain, in insertion
// order. Only directives staged on this backend instance are visible.
func (r *Restore) List(table, chain string) ([]string, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, sr := range t.rules {
		if sr.hasChain && sr.chain == chain {
			out = append(out, sr.text)
		}
	}
	return out, nil
}

// ListTable returns every staged directive of the table regardless of chain
// association.
func (r *Restore) ListTable(table string) ([]string, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(t.rules))
	for _, sr := range t.rules {
		out = append(out, sr.text)
	}
	return out, nil
}

// ListChains returns the recorded policy values of the table in chain order.
//
// Note: these are the policy VALUES, not the chain names. Callers relying on
// this method for chain names must account for this.
func (r *Restore) ListChains(table string) ([]string, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, chain := range sortedKeys(t.policies) {
		out = append(out, t.policies[chain])
	}
	return out, nil
}

// Rules returns the current serialization as individual lines. Used by tests
// and by the show/diff commands.
func (r *Restore) Rules() []string {
	var buf bytes.Buffer
	r.writeRules(&buf) // writes to a bytes.Buffer cannot fail
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// writeRules serializes the transaction in iptables-restore format: per
// table (lexicographic order) a table marker, one policy line per chain
// (lexicographic order), every directive line in insertion order, and the
// COMMIT marker.
func (r *Restore) writeRules(w io.Writer) error {
	for _, name := range sortedKeys(r.tables) {
		t := r.tables[name]
		if _, err := fmt.Fprintf(w, "*%s\n", name); err != nil {
			return err
		}
		for _, chain := range sortedKeys(t.policies) {
			if _, err := fmt.Fprintf(w, ":%s %s [0:0]\n", chain, t.policies[chain]); err != nil {
				return err
			}
		}
		for _, sr := range t.rules {
			if _, err := fmt.Fprintf(w, "%s\n", sr.text); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "COMMIT"); err != nil {
			return err
		}
	}
	return nil
}

// Commit serializes the transaction, feeds it to the restore binary on stdin
// and reports the process outcome. The in-memory transaction is discarded as
// soon as it has been serialized, before the outcome is known: a failed
// commit leaves nothing to retry and the caller must rebuild the whole
// transaction. See [CommitError].
func (r *Restore) Commit() error {
	var buf bytes.Buffer
	if err := r.writeRules(&buf); err != nil {
		return err
	}
	lines := len(r.Rules())

	r.tables = make(map[string]*stagedTable)
	metrics.Get().StagedDirectives.Set(0)

	id := uuid.New().String()
	start := r.clk.Now()
	err := r.runner.RunInput(buf.String(), r.cmd)
	elapsed := r.clk.Since(start)

	metrics.Get().CommitDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.Get().CommitsTotal.WithLabelValues(string(BackendRestore), "failure").Inc()
		r.log.Error("commit failed", "id", id, "cmd", r.cmd, "lines", lines, "elapsed", elapsed, "err", err)
		return &CommitError{Cmd: r.cmd, Err: err}
	}

	metrics.Get().CommitsTotal.WithLabelValues(string(BackendRestore), "success").Inc()
	r.log.Info("commit applied", "id", id, "cmd", r.cmd, "lines", lines, "elapsed", elapsed)
	return nil
}

// unsupported records and returns the capability mismatch for op.
func (r *Restore) unsupported(op string) error {
	metrics.Get().UnsupportedCalls.WithLabelValues(op).Inc()
	return &UnsupportedError{Op: op}
}

// Insert is unsupported: positional insertion is meaningless for a format
// that always honors textual order, and no caller requires it.
func (r *Restore) Insert(table, chain, rule string, position int) error {
	return r.unsupported("Insert")
}

// InsertUnique is unsupported. See [Restore.Insert].
func (r *Restore) InsertUnique(table, chain, rule string, position int) error {
	return r.unsupported("InsertUnique")
}

// AppendUnique is unsupported: no caller requires it. Use AppendReplace for
// idempotent appends.
func (r *Restore) AppendUnique(table, chain, rule string) error {
	return r.unsupported("AppendUnique")
}

// GetPolicy is unsupported: the only policies this backend knows about are
// the ones staged by the same caller.
func (r *Restore) GetPolicy(table, chain string) (string, error) {
	return "", r.unsupported("GetPolicy")
}

// Exists is unsupported: rules that pre-exist outside this transaction are
// not visible to this backend.
func (r *Restore) Exists(table, chain, rule string) (bool, error) {
	return false, r.unsupported("Exists")
}

// ChainExists is unsupported: chains that pre-exist outside this transaction
// are not visible to this backend.
func (r *Restore) ChainExists(table, chain string) (bool, error) {
	return false, r.unsupported("ChainExists")
}

// Replace is unsupported: the only rules that could be replaced are the ones
// staged by the same caller.
func (r *Restore) Replace(table, chain, rule string, position int) error {
	return r.unsupported("Replace")
}

// DeleteAll is unsupported: delete-while-exists cannot be expressed against
// rules this backend has never seen.
func (r *Restore) DeleteAll(table, chain, rule string) error {
	return r.unsupported("DeleteAll")
}

// RenameChain is unsupported: the only chains that could be renamed are the
// ones created by the same caller.
func (r *Restore) RenameChain(table, oldChain, newChain string) error {
	return r.unsupported("RenameChain")
}

// DeleteChain is unsupported: the only chains that could be deleted are the
// ones created by the same caller.
func (r *Restore) DeleteChain(table, chain string) error {
	return r.unsupported("DeleteChain")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
