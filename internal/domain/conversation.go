package domain

// MaxHistoryTurns bounds the history sent upstream and echoed back
// (5 user/assistant exchanges).
const MaxHistoryTurns = 10

// IsConversationRole reports whether role may appear in caller history.
func IsConversationRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// RecentTurns returns a copy of the last n turns of history.
func RecentTurns(history []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(history) == 0 {
		return []ChatMessage{}
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out
}
