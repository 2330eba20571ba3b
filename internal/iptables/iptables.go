package iptables

import "fmt"

// IPVersion selects between IPv4 and IPv6 rule handling. It determines which
// external binaries a backend invokes.
type IPVersion int

const (
	// IPv4 selects iptables / iptables-restore.
	IPv4 IPVersion = iota
	// IPv6 selects ip6tables / ip6tables-restore.
	IPv6
)

// String returns "ipv4" or "ipv6".
func (v IPVersion) String() string {
	if v == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// binary returns the iptables binary for this IP version.
func (v IPVersion) binary() string {
	if v == IPv6 {
		return "ip6tables"
	}
	return "iptables"
}

// restoreBinary returns the restore binary for this IP version.
func (v IPVersion) restoreBinary() string {
	if v == IPv6 {
		return "ip6tables-restore"
	}
	return "iptables-restore"
}

// Firewall is the capability interface over "apply a firewall directive".
// One method exists per logical operation; every backend implements the whole
// surface. Operations a backend cannot correctly service fail with an
// [UnsupportedError] rather than silently succeeding.
//
// Tables and chains are identified by name; a chain's identity is scoped to
// its table. Rules are opaque strings.
type Firewall interface {
	// GetPolicy returns the default policy for a table/chain.
	GetPolicy(table, chain string) (string, error)

	// SetPolicy sets the default policy for a table/chain.
	SetPolicy(table, chain, policy string) error

	// Execute runs a raw command against the table and returns its output.
	// Escape hatch for operations not otherwise modeled.
	Execute(table, command string) ([]byte, error)

	// Exists reports whether the rule exists in the table/chain.
	Exists(table, chain, rule string) (bool, error)

	// ChainExists reports whether the chain exists in the table.
	ChainExists(table, chain string) (bool, error)

	// Insert inserts the rule at the given position (1-based).
	Insert(table, chain, rule string, position int) error

	// InsertUnique inserts the rule at the given position if it does not exist.
	InsertUnique(table, chain, rule string, position int) error

	// Replace replaces the rule at the given position.
	Replace(table, chain, rule string, position int) error

	// Append appends the rule to the table/chain.
	Append(table, chain, rule string) error

	// AppendUnique appends the rule, failing if an equal rule already exists.
	AppendUnique(table, chain, rule string) error

	// AppendReplace appends the rule, ensuring at most one occurrence under
	// the chain. Idempotent.
	AppendReplace(table, chain, rule string) error

	// Delete deletes the rule from the table/chain.
	Delete(table, chain, rule string) error

	// DeleteAll deletes every occurrence of the rule from the table/chain.
	DeleteAll(table, chain, rule string) error

	// List lists the rules of the table/chain.
	List(table, chain string) ([]string, error)

	// ListTable lists all rules of the table.
	ListTable(table string) ([]string, error)

	// ListChains lists the chains of the table.
	//
	// Caveat: the Restore backend returns the recorded policy values, not the
	// chain names. See [Restore.ListChains].
	ListChains(table string) ([]string, error)

	// NewChain creates a new user-defined chain.
	NewChain(table, chain string) error

	// FlushChain deletes all rules in a chain.
	FlushChain(table, chain string) error

	// RenameChain renames a chain in the table.
	RenameChain(table, oldChain, newChain string) error

	// DeleteChain deletes a user-defined chain from the table.
	DeleteChain(table, chain string) error

	// FlushTable flushes all chains in a table.
	FlushTable(table string) error

	// Commit applies queued changes. Only the Restore backend gives it real
	// meaning; other backends treat it as a successful no-op.
	Commit() error
}

// BackendKind names a concrete Firewall implementation for selection via
// configuration.
type BackendKind string

const (
	// BackendExec applies each operation immediately via iptables.
	BackendExec BackendKind = "iptables"
	// BackendRestore stages operations and commits them atomically via
	// iptables-restore.
	BackendRestore BackendKind = "restore"
	// BackendNull accepts everything and does nothing (dry-run).
	BackendNull BackendKind = "null"
	// BackendRecord logs every call for test verification.
	BackendRecord BackendKind = "record"
)

// New returns the Firewall implementation named by kind.
func New(kind BackendKind, version IPVersion) (Firewall, error) {
	switch kind {
	case BackendExec:
		return NewExec(version), nil
	case BackendRestore:
		return NewRestore(version), nil
	case BackendNull:
		return NewDummy(), nil
	case BackendRecord:
		return NewRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown firewall backend %q", kind)
	}
}
