// Package sessionid provides session ID formatting and transformation functions.
// This package has minimal dependencies to avoid import cycles.
package sessionid

import (
	"time"
)

// ReplaySessionID generates the full Replay session ID from an agent session UUID.
// The format is: YYYY-MM-DD-<agent-session-uuid>
func ReplaySessionID(agentSessionUUID string) string {
	return time.Now().Format("2006-01-02") + "-" + agentSessionUUID
}

// AgentSessionID extracts the agent session UUID from a Replay session ID.
// The Replay session ID format is: YYYY-MM-DD-<agent-session-uuid>
// Returns the original string if it doesn't match the expected format.
func AgentSessionID(replaySessionID string) string {
	// Expected format: YYYY-MM-DD-<agent-uuid> (11 chars prefix: "2026-08-29-")
	if len(replaySessionID) > 11 && replaySessionID[4] == '-' && replaySessionID[7] == '-' && replaySessionID[10] == '-' {
		return replaySessionID[11:]
	}
	// Return as-is if not in expected format (backwards compatibility)
	return replaySessionID
}
