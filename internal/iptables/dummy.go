package iptables

// Dummy accepts every operation, mutates nothing and always succeeds. Used
// for dry runs where the full call surface should be exercised with zero
// host effect.
type Dummy struct{}

// NewDummy creates a dry-run backend.
func NewDummy() *Dummy {
	return &Dummy{}
}

var _ Firewall = (*Dummy)(nil)

func (*Dummy) GetPolicy(table, chain string) (string, error)              { return "", nil }
func (*Dummy) SetPolicy(table, chain, policy string) error                { return nil }
func (*Dummy) Execute(table, command string) ([]byte, error)              { return nil, nil }
func (*Dummy) Exists(table, chain, rule string) (bool, error)             { return false, nil }
func (*Dummy) ChainExists(table, chain string) (bool, error)              { return false, nil }
func (*Dummy) Insert(table, chain, rule string, position int) error       { return nil }
func (*Dummy) InsertUnique(table, chain, rule string, position int) error { return nil }
func (*Dummy) Replace(table, chain, rule string, position int) error      { return nil }
func (*Dummy) Append(table, chain, rule string) error                     { return nil }
func (*Dummy) AppendUnique(table, chain, rule string) error               { return nil }
func (*Dummy) AppendReplace(table, chain, rule string) error              { return nil }
func (*Dummy) Delete(table, chain, rule string) error                     { return nil }
func (*Dummy) DeleteAll(table, chain, rule string) error                  { return nil }
func (*Dummy) List(table, chain string) ([]string, error)                 { return nil, nil }
func (*Dummy) ListTable(table string) ([]string, error)                   { return nil, nil }
func (*Dummy) ListChains(table string) ([]string, error)                  { return nil, nil }
func (*Dummy) NewChain(table, chain string) error                         { return nil }
func (*Dummy) FlushChain(table, chain string) error                       { return nil }
func (*Dummy) RenameChain(table, oldChain, newChain string) error         { return nil }
func (*Dummy) DeleteChain(table, chain string) error                      { return nil }
func (*Dummy) FlushTable(table string) error                              { return nil }
func (*Dummy) Commit() error                                              { return nil }
