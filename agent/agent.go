package agent

import (
	"context"

	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Agent is a capability bundle: the dispatcher or one department.
type Agent interface {
	session.Agent

	// Name is the bundle's human-readable name, used in logs and journals.
	Name() string

	// Instructions is the system prompt governing the bundle's replies and
	// tool selection.
	Instructions() string

	// Greeting is spoken when the bundle takes over with no transition text
	// of its own. Empty means stay silent until the caller speaks.
	Greeting() string

	// Tools lists the bundle's callable tools, transfer tools included.
	Tools() []Tool
}

// Handoff asks the coordinator to move the caller to another department.
type Handoff struct {
	Target types.Domain
	// TransitionText is spoken before the target bundle takes over. When a
	// pending action is dropped by the transfer, the coordinator appends a
	// warning to it.
	TransitionText string
}

// Outcome is the tagged result of a tool invocation: a spoken reply or a
// handoff request. Exactly one side is set.
type Outcome struct {
	Reply   string
	Handoff *Handoff
}

// ReplyOutcome builds a reply outcome.
func ReplyOutcome(text string) Outcome {
	return Outcome{Reply: text}
}

// HandoffOutcome builds a handoff outcome.
func HandoffOutcome(target types.Domain, transition string) Outcome {
	return Outcome{Handoff: &Handoff{Target: target, TransitionText: transition}}
}

// Handler executes one tool call against the session.
type Handler func(ctx context.Context, sess *session.Context, args map[string]any) (Outcome, error)

// Tool pairs a schema with its handler. Invoke validates arguments against
// the schema before the handler runs; handlers may assume required,
// well-typed, format-checked arguments.
type Tool struct {
	Schema  types.ToolSchema
	Handler Handler
}

// Invoke validates args against the tool schema and runs the handler.
// Validation failures come back as *types.Error with code VALIDATION and
// never reach the handler.
func (t Tool) Invoke(ctx context.Context, sess *session.Context, args map[string]any) (Outcome, error) {
	cleaned, err := ValidateArgs(t.Schema, args)
	if err != nil {
		return Outcome{}, err
	}
	return t.Handler(ctx, sess, cleaned)
}

// FindTool returns the named tool from the bundle, if present.
func FindTool(a Agent, name string) (Tool, bool) {
	for _, t := range a.Tools() {
		if t.Schema.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
