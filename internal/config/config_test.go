package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dockwall/dockwall/internal/iptables"
	"github.com/dockwall/dockwall/internal/logging"
)

const sampleHCL = `
backend   = "restore"
ipv6      = true
log_level = "debug"

init "filter" {
  policies = {
    INPUT   = "DROP"
    FORWARD = "DROP"
  }
  rules = [
    "-A INPUT -i lo -j ACCEPT",
    "-A INPUT -m state --state ESTABLISHED,RELATED -j ACCEPT",
  ]
}

init "nat" {
  rules = ["-A POSTROUTING -o eth0 -j MASQUERADE"]
}
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_HCL(t *testing.T) {
	cfg, err := LoadFile(writeTemp(t, "dockwall.hcl", sampleHCL))
	require.NoError(t, err)

	require.Equal(t, iptables.BackendRestore, cfg.BackendKind())
	require.True(t, cfg.IPv6)
	require.Equal(t, logging.LevelDebug, cfg.Level())

	require.Len(t, cfg.Init, 2)
	require.Equal(t, "filter", cfg.Init[0].Table)
	require.Equal(t, "DROP", cfg.Init[0].Policies["INPUT"])
	require.Len(t, cfg.Init[0].Rules, 2)
	require.Equal(t, "nat", cfg.Init[1].Table)
}

func TestLoadFile_JSON(t *testing.T) {
	content := `{
  "backend": "null",
  "init": [{"table": "filter", "rules": ["-A INPUT -j ACCEPT"]}]
}`
	cfg, err := LoadFile(writeTemp(t, "dockwall.json", content))
	require.NoError(t, err)
	require.Equal(t, iptables.BackendNull, cfg.BackendKind())
	require.Len(t, cfg.Init, 1)
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeTemp(t, "dockwall.hcl", ""))
	require.NoError(t, err)
	require.Equal(t, iptables.BackendRestore, cfg.BackendKind())
	require.Equal(t, logging.LevelInfo, cfg.Level())
	require.False(t, cfg.IPv6)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		hcl  string
	}{
		{"unknown backend", `backend = "nftables"`},
		{"unknown log level", `log_level = "trace"`},
		{"duplicate init table", `
init "filter" { rules = [] }
init "filter" { rules = [] }
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadHCL([]byte(tc.hcl), "test.hcl")
			require.Error(t, err)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}

func TestLoadFile_MalformedHCL(t *testing.T) {
	_, err := LoadFile(writeTemp(t, "bad.hcl", `backend = `))
	require.Error(t, err)
}
