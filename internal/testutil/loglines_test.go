package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expected.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadLog_PlainLines(t *testing.T) {
	lines, err := LoadLog(writeLog(t, "NewChain\tfilter TEST_CHAIN\nCommit\t\n"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, LogLine{Function: "NewChain", Args: "filter TEST_CHAIN"}, lines[0])
	require.False(t, lines[0].Regex)
}

func TestLoadLog_ExpandsPlaceholders(t *testing.T) {
	lines, err := LoadLog(writeLog(t, "Append\tfilter INPUT -s $src=ip -j ACCEPT\n"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.True(t, lines[0].Regex)

	actual := LogLine{Function: "Append", Args: "filter INPUT -s 10.0.0.1 -j ACCEPT"}
	require.True(t, lines[0].Matches(actual))

	wrong := LogLine{Function: "Append", Args: "filter INPUT -s nonsense -j ACCEPT"}
	require.False(t, lines[0].Matches(wrong))
}

func TestLoadLog_BridgePattern(t *testing.T) {
	lines, err := LoadLog(writeLog(t, "Append\tfilter FORWARD -o $br=bridge -j ACCEPT\n"))
	require.NoError(t, err)

	ok := LogLine{Function: "Append", Args: "filter FORWARD -o br-0123456789ab -j ACCEPT"}
	require.True(t, lines[0].Matches(ok))

	bad := LogLine{Function: "Append", Args: "filter FORWARD -o eth0 -j ACCEPT"}
	require.False(t, lines[0].Matches(bad))
}

func TestLoadLog_EmbeddedPlaceholder(t *testing.T) {
	lines, err := LoadLog(writeLog(t, "Execute\tnat -A POSTROUTING -s ${net=ip}/24 -j MASQUERADE\n"))
	require.NoError(t, err)
	require.True(t, lines[0].Regex)

	ok := LogLine{Function: "Execute", Args: "nat -A POSTROUTING -s 172.17.0.0/24 -j MASQUERADE"}
	require.True(t, lines[0].Matches(ok))
}

func TestLoadLog_Malformed(t *testing.T) {
	_, err := LoadLog(writeLog(t, "just-a-function-name\n"))
	require.Error(t, err)
}

func TestMatches_FunctionMismatch(t *testing.T) {
	exp := LogLine{Function: "Append", Args: "x"}
	require.False(t, exp.Matches(LogLine{Function: "Delete", Args: "x"}))
}

func TestMatches_TwoPatternsNeverMatch(t *testing.T) {
	a := LogLine{Function: "Append", Args: `(?P<x>\d+)`, Regex: true}
	b := LogLine{Function: "Append", Args: `(?P<y>\d+)`, Regex: true}
	require.False(t, a.Matches(b))
}

func TestMatchLog(t *testing.T) {
	expected := []LogLine{
		{Function: "NewChain", Args: "filter TEST_CHAIN"},
		{Function: "Commit", Args: ""},
	}
	actual := []LogLine{
		{Function: "NewChain", Args: "filter TEST_CHAIN"},
		{Function: "Commit", Args: ""},
	}
	require.Empty(t, MatchLog(expected, actual))

	actual[1].Function = "FlushTable"
	require.NotEmpty(t, MatchLog(expected, actual))

	require.NotEmpty(t, MatchLog(expected, actual[:1]))
}
