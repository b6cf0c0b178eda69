// Package dialog keeps per-chat conversation state for the Telegram bot.
package dialog

type State string

const (
	StateIdle State = "idle"
	// StateAwaitDeclineReason: the approver pressed Decline and the next
	// text message is the reason. Payload carries "quote_id".
	StateAwaitDeclineReason State = "await_decline_reason"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// GetInt64 reads a number stored in payload. JSON round trips turn
// numbers into float64, so both forms are accepted.
func GetInt64(p Payload, key string) (int64, bool) {
	switch v := p[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
