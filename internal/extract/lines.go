package extract

import "strings"

// RecognizedText is the recognizer output as ordered, trimmed, non-empty lines.
//
// Line order is the engine's order and matters: every first-match rule scans
// from the top.
type RecognizedText []string

// SplitLines splits a raw recognition blob into RecognizedText.
// CRLF and CR line endings are accepted; blank lines are dropped.
func SplitLines(text string) RecognizedText {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make(RecognizedText, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// String joins the lines back with newlines.
func (t RecognizedText) String() string {
	return strings.Join(t, "\n")
}
