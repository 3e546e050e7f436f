package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

type testAgent struct {
	domain   types.Domain
	name     string
	greeting string
	tools    []Tool
}

func (a *testAgent) Domain() types.Domain { return a.domain }
func (a *testAgent) Name() string         { return a.name }
func (a *testAgent) Instructions() string { return "You are a test bundle." }
func (a *testAgent) Greeting() string     { return a.greeting }
func (a *testAgent) Tools() []Tool        { return a.tools }

func echoTool(name string) Tool {
	return Tool{
		Schema: types.ToolSchema{
			Name: name,
			Parameters: []types.Param{
				{Name: "text", Type: types.ParamString, Required: true},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (Outcome, error) {
			return ReplyOutcome(args["text"].(string)), nil
		},
	}
}

func TestToolInvokeValidates(t *testing.T) {
	sess := session.NewContext("")
	tool := echoTool("echo")

	out, err := tool.Invoke(context.Background(), sess, map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Reply)
	assert.Nil(t, out.Handoff)

	_, err = tool.Invoke(context.Background(), sess, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}

func TestFindTool(t *testing.T) {
	a := &testAgent{domain: types.DomainRestaurant, tools: []Tool{echoTool("menu"), echoTool("order")}}

	got, ok := FindTool(a, "order")
	require.True(t, ok)
	assert.Equal(t, "order", got.Schema.Name)

	_, ok = FindTool(a, "refund")
	assert.False(t, ok)
}

func TestOutcomeConstructors(t *testing.T) {
	r := ReplyOutcome("done")
	assert.Equal(t, "done", r.Reply)
	assert.Nil(t, r.Handoff)

	h := HandoffOutcome(types.DomainAirline, "Switching you now.")
	assert.Empty(t, h.Reply)
	require.NotNil(t, h.Handoff)
	assert.Equal(t, types.DomainAirline, h.Handoff.Target)
	assert.Equal(t, "Switching you now.", h.Handoff.TransitionText)
}

func TestRegistryFreshInstances(t *testing.T) {
	reg := NewRegistry()
	built := 0
	reg.Register(types.DomainAirline, func() Agent {
		built++
		return &testAgent{domain: types.DomainAirline, name: "airline"}
	})

	a1, err := reg.New(types.DomainAirline)
	require.NoError(t, err)
	a2, err := reg.New(types.DomainAirline)
	require.NoError(t, err)

	assert.Equal(t, 2, built)
	assert.NotSame(t, a1, a2, "every transfer gets a fresh instance")

	_, err = reg.New(types.DomainHealthcare)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

type recordingMetrics struct {
	handoffs [][2]types.Domain
	dropped  []types.ActionKind
}

func (m *recordingMetrics) HandoffPerformed(from, to types.Domain) {
	m.handoffs = append(m.handoffs, [2]types.Domain{from, to})
}

func (m *recordingMetrics) PendingDropped(kind types.ActionKind) {
	m.dropped = append(m.dropped, kind)
}

func TestCoordinatorTransfer(t *testing.T) {
	reg := NewRegistry()
	reg.Register(types.DomainAirline, func() Agent {
		return &testAgent{domain: types.DomainAirline, name: "airline"}
	})
	mets := &recordingMetrics{}
	coord := NewCoordinator(reg, mets, nil)

	sess := session.NewContext("")
	sess.SetActiveAgent(&testAgent{domain: types.DomainDispatcher, name: "dispatcher"})

	text, err := coord.Transfer(sess, &Handoff{
		Target:         types.DomainAirline,
		TransitionText: "Switching you to our Airline team.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Switching you to our Airline team.", text)
	assert.Equal(t, types.DomainAirline, sess.ActiveAgent().Domain())
	assert.Equal(t, 1, sess.SessionMetrics().Handoffs)
	require.Len(t, mets.handoffs, 1)
	assert.Equal(t, types.DomainDispatcher, mets.handoffs[0][0])
	assert.Equal(t, types.DomainAirline, mets.handoffs[0][1])
}

func TestCoordinatorTransferDropsPending(t *testing.T) {
	reg := NewRegistry()
	reg.Register(types.DomainHealthcare, func() Agent {
		return &testAgent{domain: types.DomainHealthcare, name: "healthcare"}
	})
	mets := &recordingMetrics{}
	coord := NewCoordinator(reg, mets, nil)

	sess := session.NewContext("")
	sess.SetActiveAgent(&testAgent{domain: types.DomainRestaurant, name: "restaurant"})
	sess.SetPending(&types.PendingAction{
		ID:     "PRV-abc",
		Kind:   types.KindReservation,
		Status: types.StatusPending,
	})

	text, err := coord.Transfer(sess, &Handoff{
		Target:         types.DomainHealthcare,
		TransitionText: "Switching you to our Healthcare team.",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Switching you to our Healthcare team.")
	assert.Contains(t, text, "reservation was discarded",
		"caller is told the unconfirmed action did not survive the transfer")
	assert.Nil(t, sess.Pending())
	assert.Equal(t, []types.ActionKind{types.KindReservation}, mets.dropped)
}

func TestCoordinatorTransferUnknownTarget(t *testing.T) {
	coord := NewCoordinator(NewRegistry(), nil, nil)
	sess := session.NewContext("")
	sess.SetPending(&types.PendingAction{ID: "PRV-1", Kind: types.KindOrder, Status: types.StatusPending})

	_, err := coord.Transfer(sess, &Handoff{Target: types.DomainAirline})
	require.Error(t, err)
	assert.Equal(t, types.ErrCollaborator, types.GetErrorCode(err))
	assert.NotNil(t, sess.Pending(), "failed transfer leaves the session untouched")
}

func TestCoordinatorGreetingFallback(t *testing.T) {
	reg := NewRegistry()
	reg.Register(types.DomainCompany, func() Agent {
		return &testAgent{domain: types.DomainCompany, greeting: "Company information desk, hello."}
	})
	coord := NewCoordinator(reg, nil, nil)
	sess := session.NewContext("")

	text, err := coord.Transfer(sess, &Handoff{Target: types.DomainCompany})
	require.NoError(t, err)
	assert.Equal(t, "Company information desk, hello.", text)
}
