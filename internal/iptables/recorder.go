package iptables

import (
	"strconv"
	"strings"
)

// Call is one recorded operation: the function name and its stringified,
// space-joined arguments. Args is nil for calls that take no arguments.
type Call struct {
	Function string
	Args     *string
}

// Recorder accepts every operation, appends it to an ordered log and always
// succeeds. Used in tests to assert exactly which operations were invoked
// and with which arguments, independent of any real effect.
//
// Not safe for concurrent use.
type Recorder struct {
	calls []Call
}

// NewRecorder creates a recording backend with an empty log.
func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ Firewall = (*Recorder)(nil)

func (r *Recorder) record(function string, args ...string) {
	call := Call{Function: function}
	if len(args) > 0 {
		joined := strings.Join(args, " ")
		call.Args = &joined
	}
	r.calls = append(r.calls, call)
}

// Calls returns a copy of the recorded log.
func (r *Recorder) Calls() []Call {
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) GetPolicy(table, chain string) (string, error) {
	r.record("GetPolicy", table, chain)
	return "", nil
}

func (r *Recorder) SetPolicy(table, chain, policy string) error {
	r.record("SetPolicy", table, chain, policy)
	return nil
}

func (r *Recorder) Execute(table, command string) ([]byte, error) {
	r.record("Execute", table, command)
	return nil, nil
}

func (r *Recorder) Exists(table, chain, rule string) (bool, error) {
	r.record("Exists", table, chain, rule)
	return false, nil
}

func (r *Recorder) ChainExists(table, chain string) (bool, error) {
	r.record("ChainExists", table, chain)
	return false, nil
}

func (r *Recorder) Insert(table, chain, rule string, position int) error {
	r.record("Insert", table, chain, rule, strconv.Itoa(position))
	return nil
}

func (r *Recorder) InsertUnique(table, chain, rule string, position int) error {
	r.record("InsertUnique", table, chain, rule, strconv.Itoa(position))
	return nil
}

func (r *Recorder) Replace(table, chain, rule string, position int) error {
	r.record("Replace", table, chain, rule, strconv.Itoa(position))
	return nil
}

func (r *Recorder) Append(table, chain, rule string) error {
	r.record("Append", table, chain, rule)
	return nil
}

func (r *Recorder) AppendUnique(table, chain, rule string) error {
	r.record("AppendUnique", table, chain, rule)
	return nil
}

func (r *Recorder) AppendReplace(table, chain, rule string) error {
	r.record("AppendReplace", table, chain, rule)
	return nil
}

func (r *Recorder) Delete(table, chain, rule string) error {
	r.record("Delete", table, chain, rule)
	return nil
}

func (r *Recorder) DeleteAll(table, chain, rule string) error {
	r.record("DeleteAll", table, chain, rule)
	return nil
}

func (r *Recorder) List(table, chain string) ([]string, error) {
	r.record("List", table, chain)
	return nil, nil
}

func (r *Recorder) ListTable(table string) ([]string, error) {
	r.record("ListTable", table)
	return nil, nil
}

func (r *Recorder) ListChains(table string) ([]string, error) {
	r.record("ListChains", table)
	return nil, nil
}

func (r *Recorder) NewChain(table, chain string) error {
	r.record("NewChain", table, chain)
	return nil
}

func (r *Recorder) FlushChain(table, chain string) error {
	r.record("FlushChain", table, chain)
	return nil
}

func (r *Recorder) RenameChain(table, oldChain, newChain string) error {
	r.record("RenameChain", table, oldChain, newChain)
	return nil
}

func (r *Recorder) DeleteChain(table, chain string) error {
	r.record("DeleteChain", table, chain)
	return nil
}

func (r *Recorder) FlushTable(table string) error {
	r.record("FlushTable", table)
	return nil
}

func (r *Recorder) Commit() error {
	r.record("Commit")
	return nil
}
