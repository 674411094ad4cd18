package plan

import (
	"fmt"
	"strings"
)

// ValidationError reports input rejected before any state change or external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedPlanError reports a planner response that does not have the
// required shape or does not cover the syllabus exactly once.
type MalformedPlanError struct {
	Reason  string
	Missing []TopicRef
	Extra   []TopicRef
}

func (e *MalformedPlanError) Error() string {
	var b strings.Builder
	b.WriteString("malformed plan: ")
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %s", joinRefs(e.Missing))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; unexpected %s", joinRefs(e.Extra))
	}
	return b.String()
}

func joinRefs(refs []TopicRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = fmt.Sprintf("%s/%s", r.Subject, r.Topic)
	}
	return strings.Join(parts, ", ")
}
