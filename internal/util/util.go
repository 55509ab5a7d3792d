// Package util provides common helpers used across the playback engine.
package util

import (
	"strings"
	"time"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// SplitCommandLine parses a console line into a command and its arguments.
// The command is the first whitespace-separated field, uppercased and
// wrapped in colons if not already: "play" and ":PLAY:" are equivalent.
func SplitCommandLine(line string) (command string, args []string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "", nil
	}

	command = strings.ToUpper(fields[0])
	if !strings.HasPrefix(command, ":") {
		command = ":" + command
	}
	if !strings.HasSuffix(command, ":") {
		command += ":"
	}

	for _, f := range fields[1:] {
		args = append(args, TrimQuotes(f))
	}
	return command, args
}

// FormatEpochMs renders an epoch-millisecond timestamp for status output.
func FormatEpochMs(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04:05 MST")
}
