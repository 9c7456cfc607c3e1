package mcp

import "strings"

// maxOutputBytes caps how much command output a tool result carries.
// Model contexts are small; a runaway command can print megabytes.
const maxOutputBytes = 16 * 1024

const truncationMarker = "\n[output truncated]"

// truncateOutput caps s at maxOutputBytes, keeping the head. The cut lands
// on a line boundary when one exists in the second half of the budget.
func truncateOutput(s string) (string, bool) {
	if len(s) <= maxOutputBytes {
		return s, false
	}

	cut := maxOutputBytes
	if nl := strings.LastIndexByte(s[:cut], '\n'); nl >= maxOutputBytes/2 {
		cut = nl
	}
	return s[:cut] + truncationMarker, true
}
