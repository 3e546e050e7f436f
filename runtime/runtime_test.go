package runtime

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/router"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

type stubAgent struct {
	domain   types.Domain
	greeting string
	tools    []agent.Tool
}

func (s *stubAgent) Domain() types.Domain { return s.domain }
func (s *stubAgent) Name() string         { return string(s.domain) + " desk" }
func (s *stubAgent) Instructions() string { return "You are the " + string(s.domain) + " desk." }
func (s *stubAgent) Greeting() string     { return s.greeting }
func (s *stubAgent) Tools() []agent.Tool  { return s.tools }

func echoTool() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "echo",
			Description: "Repeat the text back.",
			Parameters: []types.Param{
				{Name: "text", Type: types.ParamString, Required: true},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			return agent.ReplyOutcome("You said " + args["text"].(string) + "."), nil
		},
	}
}

func failingTool(name string, err error) agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{Name: name, Description: "Always fails."},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.Outcome{}, err
		},
	}
}

func backToDeskTool() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{Name: "transfer_back", Description: "Back to the front desk."},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.HandoffOutcome(types.DomainDispatcher, "Back to the front desk."), nil
		},
	}
}

type stubClassifier struct {
	decision router.Decision
	err      error
}

func (s *stubClassifier) Classify(context.Context, string) (router.Decision, error) {
	return s.decision, s.err
}

// scriptedLLM returns canned completions in order.
func scriptedLLM(outputs ...string) llm.Client {
	i := 0
	return llm.CompleteFunc(func(context.Context, llm.Request) (string, error) {
		if i >= len(outputs) {
			return outputs[len(outputs)-1], nil
		}
		out := outputs[i]
		i++
		return out, nil
	})
}

func newTestEngine(t *testing.T, classifier router.Classifier, client llm.Client, deskTools ...agent.Tool) (*Engine, *agent.Registry) {
	t.Helper()
	reg := agent.NewRegistry()
	reg.Register(types.DomainDispatcher, func() agent.Agent {
		return &stubAgent{domain: types.DomainDispatcher, greeting: "Front desk, hello."}
	})
	tools := deskTools
	if len(tools) == 0 {
		tools = []agent.Tool{echoTool()}
	}
	reg.Register(types.DomainAirline, func() agent.Agent {
		return &stubAgent{domain: types.DomainAirline, greeting: "Airline desk here.", tools: tools}
	})

	coordinator := agent.NewCoordinator(reg, nil, nil)
	rt := router.New(classifier, coordinator, nil, nil)
	planner := NewPlanner(client, "test-model", nil)
	return NewEngine(planner, rt, coordinator, nil, nil), reg
}

func seatAtDesk(t *testing.T, reg *agent.Registry, sess *session.Context, d types.Domain) {
	t.Helper()
	a, err := reg.New(d)
	require.NoError(t, err)
	sess.SetActiveAgent(a)
}

func TestEngineClosingUtterances(t *testing.T) {
	tests := []struct {
		utterance string
		closing   bool
	}{
		{"bye", true},
		{"Goodbye.", true},
		{" thanks! ", true},
		{"that's it", true},
		{"see you", true},
		{"thanks for nothing, transfer me", false},
		{"is the flight delayed", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			engine, reg := newTestEngine(t,
				&stubClassifier{err: types.NewError(types.ErrClassification, "no match")},
				scriptedLLM(`{"reply": "Happy to help."}`))
			sess := session.NewContext("")
			seatAtDesk(t, reg, sess, types.DomainDispatcher)

			reply := engine.HandleTurn(context.Background(), sess, tt.utterance)
			if tt.closing {
				assert.Equal(t, Farewell, reply)
				assert.True(t, sess.Ending())
			} else {
				assert.NotEqual(t, Farewell, reply)
				assert.False(t, sess.Ending())
			}
		})
	}
}

func TestEngineRoutesFirstUtterance(t *testing.T) {
	engine, reg := newTestEngine(t,
		&stubClassifier{decision: router.Decision{Domain: types.DomainAirline}},
		scriptedLLM(`{"reply": "unused"}`))
	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainDispatcher)

	reply := engine.HandleTurn(context.Background(), sess, "I need to book a flight")
	assert.Contains(t, reply, "Switching you to our Airline team")
	assert.Equal(t, types.DomainAirline, sess.ActiveAgent().Domain())

	transcript := sess.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, types.RoleUser, transcript[0].Role)
	assert.Equal(t, types.RoleAssistant, transcript[1].Role)
}

func TestEngineApologizesWhenUnroutable(t *testing.T) {
	engine, reg := newTestEngine(t,
		&stubClassifier{err: types.NewError(types.ErrClassification, "no match")},
		scriptedLLM(`{"reply": "unused"}`))
	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainDispatcher)

	reply := engine.HandleTurn(context.Background(), sess, "mumble mumble")
	assert.Equal(t, router.Apology, reply)
	assert.Equal(t, types.DomainDispatcher, sess.ActiveAgent().Domain())
}

func TestEngineRunsPlannedTool(t *testing.T) {
	engine, reg := newTestEngine(t, &stubClassifier{},
		scriptedLLM(`{"tool": "echo", "args": {"text": "hello"}}`))
	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainAirline)

	reply := engine.HandleTurn(context.Background(), sess, "say hello")
	assert.Equal(t, "You said hello.", reply)
	assert.Equal(t, 1, sess.SessionMetrics().ToolCalls)
}

func TestEngineSpeaksDirectReply(t *testing.T) {
	engine, reg := newTestEngine(t, &stubClassifier{},
		scriptedLLM(`{"reply": "We fly daily to Dubai."}`))
	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainAirline)

	reply := engine.HandleTurn(context.Background(), sess, "do you fly to dubai")
	assert.Equal(t, "We fly daily to Dubai.", reply)
	assert.Zero(t, sess.SessionMetrics().ToolCalls)
}

func TestEngineSoftFailsOnUnplannableTurn(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown tool", `{"tool": "time_travel"}`},
		{"malformed", `beep boop`},
		{"empty verdict", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, reg := newTestEngine(t, &stubClassifier{}, scriptedLLM(tt.raw))
			sess := session.NewContext("")
			seatAtDesk(t, reg, sess, types.DomainAirline)

			reply := engine.HandleTurn(context.Background(), sess, "anything")
			assert.Contains(t, reply, "rephrase")
			assert.Equal(t, 1, sess.SessionMetrics().ClassificationFailures)
		})
	}
}

func TestEngineSpeaksActionableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation spoken as-is",
			err:  types.NewError(types.ErrValidation, "party size must be between 1 and 20"),
			want: "party size must be between 1 and 20",
		},
		{
			name: "not found spoken as-is",
			err:  types.NewError(types.ErrNotFound, "no flight SB999 in today's schedule"),
			want: "no flight SB999 in today's schedule",
		},
		{
			name: "no pending gets its own phrasing",
			err:  types.NewError(types.ErrNoPending, "nothing staged"),
			want: "nothing staged for me to act on",
		},
		{
			name: "internal stays vague",
			err:  types.NewError(types.ErrInternal, "smtp handshake exploded"),
			want: retryPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, reg := newTestEngine(t, &stubClassifier{},
				scriptedLLM(`{"tool": "boom", "args": {}}`),
				failingTool("boom", tt.err))
			sess := session.NewContext("")
			seatAtDesk(t, reg, sess, types.DomainAirline)

			reply := engine.HandleTurn(context.Background(), sess, "do the thing")
			assert.Contains(t, reply, tt.want)
		})
	}
}

// fadingAgent drops its tool surface after a set number of Tools() calls,
// so a planned tool can vanish before the engine dispatches it.
type fadingAgent struct {
	stubAgent
	calls, keep int
}

func (f *fadingAgent) Tools() []agent.Tool {
	f.calls++
	if f.calls > f.keep {
		return nil
	}
	return f.stubAgent.tools
}

func TestEngineRetriesWhenPlannedToolVanishes(t *testing.T) {
	reg := agent.NewRegistry()
	reg.Register(types.DomainDispatcher, func() agent.Agent {
		return &stubAgent{domain: types.DomainDispatcher, greeting: "Front desk, hello."}
	})
	reg.Register(types.DomainAirline, func() agent.Agent {
		// survives the planner's prompt and lookup, gone at dispatch
		return &fadingAgent{
			stubAgent: stubAgent{domain: types.DomainAirline, tools: []agent.Tool{echoTool()}},
			keep:      2,
		}
	})

	coordinator := agent.NewCoordinator(reg, nil, nil)
	rt := router.New(&stubClassifier{}, coordinator, nil, nil)
	planner := NewPlanner(scriptedLLM(`{"tool": "echo", "args": {"text": "hello"}}`), "test-model", nil)
	engine := NewEngine(planner, rt, coordinator, nil, nil)

	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainAirline)

	reply := engine.HandleTurn(context.Background(), sess, "say hello")
	assert.Equal(t, retryPrompt, reply)
	assert.Zero(t, sess.SessionMetrics().ToolCalls, "a vanished tool is never invoked")
}

func TestEngineAppliesHandoffFromTool(t *testing.T) {
	engine, reg := newTestEngine(t, &stubClassifier{},
		scriptedLLM(`{"tool": "transfer_back", "args": {}}`),
		backToDeskTool())
	sess := session.NewContext("")
	seatAtDesk(t, reg, sess, types.DomainAirline)

	reply := engine.HandleTurn(context.Background(), sess, "this isn't about flights")
	assert.Equal(t, "Back to the front desk.", reply)
	assert.Equal(t, types.DomainDispatcher, sess.ActiveAgent().Domain())
	assert.Equal(t, 1, sess.SessionMetrics().Handoffs)
}

func TestPlannerVerdicts(t *testing.T) {
	desk := &stubAgent{domain: types.DomainAirline, tools: []agent.Tool{echoTool()}}

	tests := []struct {
		name     string
		raw      string
		wantTool string
		wantSay  string
		wantCode types.ErrorCode
	}{
		{name: "plain tool call", raw: `{"tool": "echo", "args": {"text": "hi"}}`, wantTool: "echo"},
		{name: "fenced tool call", raw: "```json\n{\"tool\": \"echo\", \"args\": {\"text\": \"hi\"}}\n```", wantTool: "echo"},
		{name: "tool without args", raw: `{"tool": "echo"}`, wantTool: "echo"},
		{name: "direct reply", raw: `{"reply": "Certainly."}`, wantSay: "Certainly."},
		{name: "unknown tool", raw: `{"tool": "time_travel"}`, wantCode: types.ErrUnknownTool},
		{name: "malformed", raw: `not json`, wantCode: types.ErrClassification},
		{name: "neither side", raw: `{"tool": null, "reply": ""}`, wantCode: types.ErrClassification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(scriptedLLM(tt.raw), "test-model", nil)
			plan, err := p.Plan(context.Background(), desk, session.NewContext(""), "hello")

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTool, plan.Tool)
			assert.Equal(t, tt.wantSay, plan.Reply)
			if tt.wantTool != "" {
				assert.NotNil(t, plan.Args)
			}
		})
	}
}

func TestPlannerModelFailureIsRetryable(t *testing.T) {
	p := NewPlanner(llm.CompleteFunc(func(context.Context, llm.Request) (string, error) {
		return "", errors.New("upstream down")
	}), "test-model", nil)
	desk := &stubAgent{domain: types.DomainAirline, tools: []agent.Tool{echoTool()}}

	_, err := p.Plan(context.Background(), desk, session.NewContext(""), "hello")
	require.Error(t, err)
	var terr *types.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, types.ErrClassification, terr.Code)
	assert.True(t, terr.Retryable)
}

func TestFillerPlaysAfterDelay(t *testing.T) {
	played := make(chan string, 1)
	f := NewFiller(config.FillerConfig{Dir: "audio", Count: 4, Delay: 5 * time.Millisecond}, nil)
	sess := session.NewContext("")

	f.Start(sess, PlayerFunc(func(_ context.Context, name string) { played <- name }))
	select {
	case name := <-played:
		assert.True(t, strings.HasPrefix(name, "audio/filler_"), name)
	case <-time.After(time.Second):
		t.Fatal("filler never played")
	}
}

func TestFillerCancelledBeforeDelayStaysSilent(t *testing.T) {
	played := make(chan string, 1)
	f := NewFiller(config.FillerConfig{Dir: "audio", Count: 4, Delay: 50 * time.Millisecond}, nil)
	sess := session.NewContext("")

	f.Start(sess, PlayerFunc(func(_ context.Context, name string) { played <- name }))
	sess.CancelFiller()

	select {
	case name := <-played:
		t.Fatalf("filler played %s despite cancellation", name)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestNilFillerIsSafe(t *testing.T) {
	var f *Filler
	f.Start(session.NewContext(""), PlayerFunc(func(context.Context, string) {}))
}

// scriptedConn feeds utterances in order and records everything spoken.
type scriptedConn struct {
	utterances []string
	spoken     []string
}

func (c *scriptedConn) ReadUtterance(context.Context) (string, error) {
	if len(c.utterances) == 0 {
		return "", io.EOF
	}
	u := c.utterances[0]
	c.utterances = c.utterances[1:]
	return u, nil
}

func (c *scriptedConn) Speak(_ context.Context, text string) error {
	c.spoken = append(c.spoken, text)
	return nil
}

func TestWorkerRunsSessionToGoodbye(t *testing.T) {
	engine, reg := newTestEngine(t,
		&stubClassifier{decision: router.Decision{Domain: types.DomainAirline}},
		scriptedLLM(`{"reply": "unused"}`))

	journalPath := filepath.Join(t.TempDir(), "sessions.jsonl")
	journal := session.NewJournal(journalPath, nil)
	w := NewWorker(engine, reg, journal, nil, "Hello, front desk.", nil, nil)

	conn := &scriptedConn{utterances: []string{"I want to book a flight", "bye"}}
	sess := session.NewContext("w-1")
	require.NoError(t, w.Run(context.Background(), sess, conn))

	require.Len(t, conn.spoken, 3)
	assert.Equal(t, "Hello, front desk.", conn.spoken[0])
	assert.Contains(t, conn.spoken[1], "Switching you to our Airline team")
	assert.Equal(t, Farewell, conn.spoken[2])

	data, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"w-1"`)
	assert.Contains(t, string(data), "book a flight")
}

func TestWorkerHangupWritesJournal(t *testing.T) {
	engine, reg := newTestEngine(t, &stubClassifier{}, scriptedLLM(`{"reply": "unused"}`))

	journalPath := filepath.Join(t.TempDir(), "sessions.jsonl")
	w := NewWorker(engine, reg, session.NewJournal(journalPath, nil), nil, "", nil, nil)

	// caller hangs up straight after the greeting
	conn := &scriptedConn{}
	require.NoError(t, w.Run(context.Background(), session.NewContext("w-2"), conn))

	require.Len(t, conn.spoken, 1)
	assert.Equal(t, "Front desk, hello.", conn.spoken[0])

	data, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"w-2"`)
}
