package iptables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDummy_EverythingSucceedsTrivially(t *testing.T) {
	d := NewDummy()

	policy, err := d.GetPolicy("filter", "INPUT")
	require.NoError(t, err)
	require.Empty(t, policy)

	out, err := d.Execute("filter", "-F")
	require.NoError(t, err)
	require.Empty(t, out)

	exists, err := d.Exists("filter", "INPUT", "-j DROP")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, d.SetPolicy("filter", "INPUT", "DROP"))
	require.NoError(t, d.Insert("filter", "INPUT", "-j DROP", 1))
	require.NoError(t, d.Append("filter", "INPUT", "-j DROP"))
	require.NoError(t, d.AppendReplace("filter", "INPUT", "-j DROP"))
	require.NoError(t, d.Delete("filter", "INPUT", "-j DROP"))
	require.NoError(t, d.NewChain("filter", "TEST_CHAIN"))
	require.NoError(t, d.FlushChain("filter", "TEST_CHAIN"))
	require.NoError(t, d.RenameChain("filter", "TEST_CHAIN", "OTHER"))
	require.NoError(t, d.DeleteChain("filter", "OTHER"))
	require.NoError(t, d.FlushTable("filter"))
	require.NoError(t, d.Commit())

	rules, err := d.List("filter", "INPUT")
	require.NoError(t, err)
	require.Empty(t, rules)
}
