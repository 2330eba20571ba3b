package iptables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsBackend(t *testing.T) {
	tests := []struct {
		kind BackendKind
		want any
	}{
		{BackendExec, &Exec{}},
		{BackendRestore, &Restore{}},
		{BackendNull, &Dummy{}},
		{BackendRecord, &Recorder{}},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			fw, err := New(tc.kind, IPv4)
			require.NoError(t, err)
			require.IsType(t, tc.want, fw)
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(BackendKind("nftables"), IPv4)
	require.Error(t, err)
}

func TestIPVersion_Binaries(t *testing.T) {
	require.Equal(t, "iptables", IPv4.binary())
	require.Equal(t, "iptables-restore", IPv4.restoreBinary())
	require.Equal(t, "ip6tables", IPv6.binary())
	require.Equal(t, "ip6tables-restore", IPv6.restoreBinary())
	require.Equal(t, "ipv4", IPv4.String())
	require.Equal(t, "ipv6", IPv6.String())
}
