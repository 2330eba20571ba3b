// Package testutil provides helpers for verifying recorded firewall call
// sequences against expected-log files.
//
// An expected-log file holds one call per line in the form
//
//	function<TAB>arguments
//
// Argument segments may contain placeholders of the form $name=pattern
// (or ${name=pattern} embedded in a segment), which are expanded into named
// regular-expression groups before comparison. Known patterns:
//
//	ip      an IPv4 address
//	bridge  a Docker bridge interface name (br-<12 hex chars>)
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var placeholderRE = regexp.MustCompile(`(^\$\{?|\$\{)(?P<name>\w+)=(?P<pattern>\w+)(\}?$|\})`)

var patterns = map[string]string{
	"ip":     `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`,
	"bridge": `br-[a-f0-9]{12}`,
}

// LogLine is one expected or actual call: a function name and its
// space-joined arguments. Regex marks expected lines whose arguments were
// expanded into a pattern.
type LogLine struct {
	Function string
	Args     string
	Regex    bool
}

// Matches reports whether the actual line satisfies the expected line. When
// the expected line carries a pattern the arguments are matched against it;
// otherwise they are compared verbatim. The function names always compare
// verbatim.
func (l LogLine) Matches(actual LogLine) bool {
	if l.Function != actual.Function {
		return false
	}
	if !l.Regex {
		return l.Args == actual.Args
	}
	if actual.Regex {
		// Two patterns never match each other.
		return false
	}
	re, err := regexp.Compile("^" + l.Args + "$")
	if err != nil {
		return false
	}
	return re.MatchString(actual.Args)
}

// expandArgs rewrites $name=pattern placeholders into named regexp groups.
// Segments without placeholders are quoted so that rule text containing
// regexp metacharacters still compares literally.
func expandArgs(args string) (string, bool) {
	segments := strings.Split(args, " ")
	expanded := false
	for i, seg := range segments {
		loc := placeholderRE.FindStringSubmatchIndex(seg)
		if loc == nil {
			continue
		}
		name := seg[loc[4]:loc[5]]
		pattern, ok := patterns[seg[loc[6]:loc[7]]]
		if !ok {
			continue
		}
		before, after := seg[:loc[0]], seg[loc[1]:]
		segments[i] = fmt.Sprintf("%s(?P<%s>%s)%s", regexp.QuoteMeta(before), name, pattern, regexp.QuoteMeta(after))
		expanded = true
	}
	if !expanded {
		return args, false
	}
	for i, seg := range segments {
		if !strings.Contains(seg, "(?P<") {
			segments[i] = regexp.QuoteMeta(seg)
		}
	}
	return strings.Join(segments, " "), true
}

// LoadLog parses an expected-log file.
func LoadLog(path string) ([]LogLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []LogLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed log line %q: want function<TAB>arguments", line)
		}
		args, isRegex := expandArgs(parts[1])
		lines = append(lines, LogLine{Function: parts[0], Args: args, Regex: isRegex})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// MatchLog compares an actual call sequence against the expected one and
// returns a description of the first mismatch, or "" when the sequences
// match completely.
func MatchLog(expected, actual []LogLine) string {
	if len(expected) != len(actual) {
		return fmt.Sprintf("expected %d calls, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Matches(actual[i]) {
			return fmt.Sprintf("call %d: expected %s %q, got %s %q",
				i, expected[i].Function, expected[i].Args, actual[i].Function, actual[i].Args)
		}
	}
	return ""
}
