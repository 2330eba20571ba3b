package iptables

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dockwall/dockwall/internal/clock"
)

func newTestRestore() *Restore {
	return NewRestore(IPv4)
}

func TestRestore_SetPolicy(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.SetPolicy("nat", "TEST_CHAIN", "DROP"))

	expected := []string{
		"*nat",
		":TEST_CHAIN DROP [0:0]",
		"COMMIT",
	}
	require.Equal(t, expected, ipt.Rules())
}

func TestRestore_Append(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))

	expected := []string{
		"*filter",
		":TEST_CHAIN - [0:0]",
		"-A TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"COMMIT",
	}
	require.Equal(t, expected, ipt.Rules())
}

func TestRestore_DoubleAppend(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))
	require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))

	expected := []string{
		"*filter",
		":TEST_CHAIN - [0:0]",
		"-A TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"-A TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"COMMIT",
	}
	require.Equal(t, expected, ipt.Rules())
}

func TestRestore_DoubleAppendReplace(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.AppendReplace("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))
	require.NoError(t, ipt.AppendReplace("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))

	expected := []string{
		"*filter",
		":TEST_CHAIN - [0:0]",
		"-A TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"COMMIT",
	}
	require.Equal(t, expected, ipt.Rules())
}

func TestRestore_EmptyTransactionSerializesEmpty(t *testing.T) {
	ipt := newTestRestore()
	require.Empty(t, ipt.Rules())
}

func TestRestore_AppendPreservesCallOrder(t *testing.T) {
	ipt := newTestRestore()

	rules := []string{
		"-s 10.0.0.1 -j ACCEPT",
		"-s 10.0.0.2 -j DROP",
		"-s 10.0.0.3 -j RETURN",
	}
	for _, r := range rules {
		require.NoError(t, ipt.Append("filter", "TEST_CHAIN", r))
	}

	listed, err := ipt.List("filter", "TEST_CHAIN")
	require.NoError(t, err)
	require.Equal(t, []string{
		"-A TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"-A TEST_CHAIN -s 10.0.0.2 -j DROP",
		"-A TEST_CHAIN -s 10.0.0.3 -j RETURN",
	}, listed)
}

func TestRestore_PolicyWritePaths(t *testing.T) {
	t.Run("explicit overwrites implicit fill", func(t *testing.T) {
		ipt := newTestRestore()
		require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-j ACCEPT"))
		require.NoError(t, ipt.SetPolicy("filter", "TEST_CHAIN", "DROP"))

		require.Equal(t, []string{
			"*filter",
			":TEST_CHAIN DROP [0:0]",
			"-A TEST_CHAIN -j ACCEPT",
			"COMMIT",
		}, ipt.Rules())
	})

	t.Run("implicit fill never overwrites explicit", func(t *testing.T) {
		ipt := newTestRestore()
		require.NoError(t, ipt.SetPolicy("filter", "TEST_CHAIN", "DROP"))
		require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-j ACCEPT"))
		require.NoError(t, ipt.Delete("filter", "TEST_CHAIN", "-j RETURN"))
		require.NoError(t, ipt.FlushChain("filter", "TEST_CHAIN"))

		chains, err := ipt.ListChains("filter")
		require.NoError(t, err)
		require.Equal(t, []string{"DROP"}, chains)
	})

	t.Run("explicit always overwrites explicit", func(t *testing.T) {
		ipt := newTestRestore()
		require.NoError(t, ipt.SetPolicy("filter", "TEST_CHAIN", "DROP"))
		require.NoError(t, ipt.SetPolicy("filter", "TEST_CHAIN", "ACCEPT"))

		chains, err := ipt.ListChains("filter")
		require.NoError(t, err)
		require.Equal(t, []string{"ACCEPT"}, chains)
	})
}

func TestRestore_NewChain(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.NewChain("nat", "DOCKWALL_PREROUTING"))

	require.Equal(t, []string{
		"*nat",
		":DOCKWALL_PREROUTING - [0:0]",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_DeleteIsRecordedUnconditionally(t *testing.T) {
	ipt := newTestRestore()

	// No matching append was ever staged; the delete directive is still
	// recorded and left to iptables-restore to interpret.
	require.NoError(t, ipt.Delete("filter", "TEST_CHAIN", "-s 10.0.0.1 -j ACCEPT"))

	require.Equal(t, []string{
		"*filter",
		":TEST_CHAIN - [0:0]",
		"-D TEST_CHAIN -s 10.0.0.1 -j ACCEPT",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_FlushDirectives(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.FlushChain("filter", "TEST_CHAIN"))
	require.NoError(t, ipt.FlushTable("filter"))

	require.Equal(t, []string{
		"*filter",
		":TEST_CHAIN - [0:0]",
		"-F TEST_CHAIN",
		"-F",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_MultiTableDeterministicOrder(t *testing.T) {
	ipt := newTestRestore()

	// Staged nat first; serialization is lexicographic regardless.
	require.NoError(t, ipt.SetPolicy("nat", "PREROUTING", "ACCEPT"))
	require.NoError(t, ipt.Append("filter", "FORWARD", "-j ACCEPT"))

	require.Equal(t, []string{
		"*filter",
		":FORWARD - [0:0]",
		"-A FORWARD -j ACCEPT",
		"COMMIT",
		"*nat",
		":PREROUTING ACCEPT [0:0]",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_ChainOrderDeterministic(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.SetPolicy("filter", "ZULU", "DROP"))
	require.NoError(t, ipt.SetPolicy("filter", "ALPHA", "ACCEPT"))

	require.Equal(t, []string{
		"*filter",
		":ALPHA ACCEPT [0:0]",
		":ZULU DROP [0:0]",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_ExecuteStagesRawDirective(t *testing.T) {
	ipt := newTestRestore()

	out, err := ipt.Execute("filter", "-F")
	require.NoError(t, err)
	require.Empty(t, out)

	// Chain-less: visible in ListTable but in no chain listing.
	all, err := ipt.ListTable("filter")
	require.NoError(t, err)
	require.Equal(t, []string{"-F"}, all)

	chained, err := ipt.List("filter", "-F")
	require.NoError(t, err)
	require.Empty(t, chained)

	require.Equal(t, []string{
		"*filter",
		"-F",
		"COMMIT",
	}, ipt.Rules())
}

func TestRestore_ListAnswersFromStagedStateOnly(t *testing.T) {
	ipt := newTestRestore()

	listed, err := ipt.List("filter", "ABSENT")
	require.NoError(t, err)
	require.Empty(t, listed)

	require.NoError(t, ipt.Append("filter", "A", "-j ACCEPT"))
	require.NoError(t, ipt.Append("filter", "B", "-j DROP"))
	require.NoError(t, ipt.FlushTable("filter"))

	listed, err = ipt.List("filter", "A")
	require.NoError(t, err)
	require.Equal(t, []string{"-A A -j ACCEPT"}, listed)

	all, err := ipt.ListTable("filter")
	require.NoError(t, err)
	require.Equal(t, []string{"-A A -j ACCEPT", "-A B -j DROP", "-F"}, all)
}

func TestRestore_ListChainsReturnsPolicyValues(t *testing.T) {
	ipt := newTestRestore()

	require.NoError(t, ipt.SetPolicy("filter", "INPUT", "DROP"))
	require.NoError(t, ipt.Append("filter", "TEST_CHAIN", "-j ACCEPT"))

	// Deliberate contract: the policy values, not the chain names.
	chains, err := ipt.ListChains("filter")
	require.NoError(t, err)
	require.Equal(t, []string{"DROP", "-"}, chains)
}

func TestRestore_UnsupportedOperations(t *testing.T) {
	ipt := newTestRestore()

	tests := []struct {
		op   string
		call func() error
	}{
		{"Insert", func() error { return ipt.Insert("filter", "C", "-j ACCEPT", 1) }},
		{"InsertUnique", func() error { return ipt.InsertUnique("filter", "C", "-j ACCEPT", 1) }},
		{"AppendUnique", func() error { return ipt.AppendUnique("filter", "C", "-j ACCEPT") }},
		{"GetPolicy", func() error { _, err := ipt.GetPolicy("filter", "C"); return err }},
		{"Exists", func() error { _, err := ipt.Exists("filter", "C", "-j ACCEPT"); return err }},
		{"ChainExists", func() error { _, err := ipt.ChainExists("filter", "C"); return err }},
		{"Replace", func() error { return ipt.Replace("filter", "C", "-j ACCEPT", 1) }},
		{"DeleteAll", func() error { return ipt.DeleteAll("filter", "C", "-j ACCEPT") }},
		{"RenameChain", func() error { return ipt.RenameChain("filter", "C", "D") }},
		{"DeleteChain", func() error { return ipt.DeleteChain("filter", "C") }},
	}

	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			require.True(t, IsUnsupported(err))

			var ue *UnsupportedError
			require.ErrorAs(t, err, &ue)
			require.Equal(t, tc.op, ue.Op)
		})
	}

	// Unsupported calls never mutate the transaction.
	require.Empty(t, ipt.Rules())
}

func TestRestore_CommitSendsSerializedTransaction(t *testing.T) {
	ipt := newTestRestore()
	runner := new(MockCommandRunner)
	ipt.runner = runner
	ipt.clk = clock.NewMockClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, ipt.SetPolicy("filter", "INPUT", "DROP"))
	require.NoError(t, ipt.Append("filter", "INPUT", "-i lo -j ACCEPT"))

	expectedInput := "*filter\n" +
		":INPUT DROP [0:0]\n" +
		"-A INPUT -i lo -j ACCEPT\n" +
		"COMMIT\n"
	runner.On("RunInput", expectedInput, "iptables-restore").Return(nil).Once()

	require.NoError(t, ipt.Commit())
	runner.AssertExpectations(t)

	// The transaction is replaced with a fresh empty one.
	require.Empty(t, ipt.Rules())

	// A second commit hands over an empty transaction.
	runner.On("RunInput", "", "iptables-restore").Return(nil).Once()
	require.NoError(t, ipt.Commit())
	runner.AssertExpectations(t)
}

func TestRestore_CommitFailureDiscardsTransaction(t *testing.T) {
	ipt := newTestRestore()
	runner := new(MockCommandRunner)
	ipt.runner = runner

	require.NoError(t, ipt.Append("filter", "INPUT", "-j DROP"))

	bootErr := errors.New("command iptables-restore failed: exit status 1: line 2 failed")
	runner.On("RunInput", mock.Anything, "iptables-restore").Return(bootErr).Once()

	err := ipt.Commit()
	require.Error(t, err)

	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "iptables-restore", ce.Cmd)
	require.ErrorIs(t, err, bootErr)

	// Failure is unrecoverable: the staged transaction is already gone.
	require.Empty(t, ipt.Rules())
	runner.AssertExpectations(t)
}

func TestRestore_IPv6UsesIP6TablesRestore(t *testing.T) {
	ipt := NewRestore(IPv6)
	runner := new(MockCommandRunner)
	ipt.runner = runner

	runner.On("RunInput", "", "ip6tables-restore").Return(nil).Once()
	require.NoError(t, ipt.Commit())
	runner.AssertExpectations(t)
}
