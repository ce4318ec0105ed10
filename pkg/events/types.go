// Package events defines the invocation event emitted after every dispatched action and
// the publishers that deliver it.
package events

// InvocationEvent describes one finished invocation. Code is empty on success.
type InvocationEvent struct {
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Ok         bool   `json:"ok"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Transport  string `json:"transport,omitempty"`
	Timestamp  string `json:"timestamp"`
}
