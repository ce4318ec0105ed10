package commsutil

import (
	"fmt"
	"strings"
)

// Default NATS subjects.
const (
	SubjectDispatch = "snowbird.dispatch"
	SubjectEvent    = "snowbird.event"
	SubjectInvoked  = "snowbird.invoked"
)

// BuildInvokedSubject builds the per-action invocation event subject, e.g.
// snowbird.invoked.todos.toggle_complete. Dots inside a name would add tokens, so they
// become underscores.
func BuildInvokedSubject(base, resource, action string) string {
	if base == "" {
		base = SubjectInvoked
	}
	return fmt.Sprintf("%s.%s.%s", base, token(resource), token(action))
}

func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}
