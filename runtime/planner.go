package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Plan is the model's decision for one turn: call a named tool with
// arguments, or speak directly. Exactly one side is set.
type Plan struct {
	Tool  string
	Args  map[string]any
	Reply string
}

// Planner asks the chat model to pick a tool for the active bundle, or to
// answer directly when none applies.
type Planner struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewPlanner creates a planner over the model.
func NewPlanner(client llm.Client, model string, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		client: client,
		model:  model,
		logger: logger.With(zap.String("component", "planner")),
	}
}

// transcriptWindow caps how much history the planner replays to the model.
const transcriptWindow = 12

func plannerPrompt(a agent.Agent) string {
	var b strings.Builder
	b.WriteString(a.Instructions())
	b.WriteString("\n\nTools available to you:\n")
	for _, t := range a.Tools() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Schema.Name, t.Schema.Description)
		for _, p := range t.Schema.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s)", p.Name, p.Type, req)
			if len(p.Enum) > 0 {
				fmt.Fprintf(&b, " one of: %s", strings.Join(p.Enum, ", "))
			}
			if p.Description != "" {
				fmt.Fprintf(&b, " - %s", p.Description)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRespond with JSON only.\n")
	b.WriteString(`To call a tool: {"tool": "<name>", "args": {...}}.` + "\n")
	b.WriteString(`To answer without a tool: {"reply": "<what to say>"}.`)
	return b.String()
}

func plannerUser(sess *session.Context, utterance string) string {
	var b strings.Builder
	transcript := sess.Transcript()
	if n := len(transcript); n > transcriptWindow {
		transcript = transcript[n-transcriptWindow:]
	}
	for _, m := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s", utterance)
	return b.String()
}

type planVerdict struct {
	Tool  *string        `json:"tool"`
	Args  map[string]any `json:"args"`
	Reply *string        `json:"reply"`
}

// Plan returns the model's decision for the utterance. Model failures and
// malformed output come back as a CLASSIFICATION_FAILED error; picking a
// tool the bundle doesn't carry is UNKNOWN_TOOL. The engine speaks a soft
// apology for both.
func (p *Planner) Plan(ctx context.Context, a agent.Agent, sess *session.Context, utterance string) (Plan, error) {
	raw, err := p.client.Complete(ctx, llm.Request{
		System:    plannerPrompt(a),
		User:      plannerUser(sess, utterance),
		Model:     p.model,
		MaxTokens: 500,
	})
	if err != nil {
		return Plan{}, types.NewError(types.ErrClassification,
			"planning model unavailable").WithCause(err).WithRetryable(true)
	}

	var v planVerdict
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		p.logger.Warn("unparseable plan", zap.String("raw", raw))
		return Plan{}, types.NewError(types.ErrClassification,
			"planning model returned malformed output").WithCause(err)
	}

	if v.Tool != nil && *v.Tool != "" {
		name := strings.TrimSpace(*v.Tool)
		if _, ok := agent.FindTool(a, name); !ok {
			p.logger.Warn("plan named a tool the bundle doesn't carry",
				zap.String("tool", name), zap.String("agent", a.Name()))
			return Plan{}, types.NewError(types.ErrUnknownTool,
				fmt.Sprintf("no tool %q on this desk", name))
		}
		args := v.Args
		if args == nil {
			args = map[string]any{}
		}
		return Plan{Tool: name, Args: args}, nil
	}

	if v.Reply != nil && strings.TrimSpace(*v.Reply) != "" {
		return Plan{Reply: strings.TrimSpace(*v.Reply)}, nil
	}

	return Plan{}, types.NewError(types.ErrClassification,
		"planning model produced neither a tool nor a reply")
}

// stripFences removes a markdown code fence wrapper, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "json" || first == "" {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
