package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/types"
)

type stubAgent struct{ domain types.Domain }

func (s stubAgent) Domain() types.Domain { return s.domain }

func TestNewContext(t *testing.T) {
	c := NewContext("")
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.StartedAt.IsZero())

	c2 := NewContext("call-42")
	assert.Equal(t, "call-42", c2.ID)
}

func TestActiveAgentSwap(t *testing.T) {
	c := NewContext("")
	require.Nil(t, c.ActiveAgent())

	c.SetActiveAgent(stubAgent{domain: types.DomainDispatcher})
	assert.Equal(t, types.DomainDispatcher, c.ActiveAgent().Domain())

	c.SetActiveAgent(stubAgent{domain: types.DomainAirline})
	assert.Equal(t, types.DomainAirline, c.ActiveAgent().Domain())
}

func TestPendingLastPreviewWins(t *testing.T) {
	c := NewContext("")

	first := &types.PendingAction{
		ID:     "PRV-1",
		Kind:   types.KindReservation,
		Status: types.StatusPending,
	}
	replaced := c.SetPending(first)
	assert.False(t, replaced)

	second := &types.PendingAction{
		ID:     "PRV-2",
		Kind:   types.KindReservation,
		Status: types.StatusPending,
	}
	replaced = c.SetPending(second)
	assert.True(t, replaced, "staging over an unconfirmed preview replaces it")
	assert.Equal(t, "PRV-2", c.Pending().ID)
}

func TestTakePending(t *testing.T) {
	tests := []struct {
		name     string
		staged   types.ActionKind
		take     types.ActionKind
		wantOK   bool
		leftOver bool
	}{
		{name: "matching kind", staged: types.KindOrder, take: types.KindOrder, wantOK: true, leftOver: false},
		{name: "any kind", staged: types.KindOrder, take: "", wantOK: true, leftOver: false},
		{name: "kind mismatch leaves slot", staged: types.KindOrder, take: types.KindBooking, wantOK: false, leftOver: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext("")
			c.SetPending(&types.PendingAction{ID: "PRV-x", Kind: tt.staged, Status: types.StatusPending})

			p, ok := c.TakePending(tt.take)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, p)
				assert.Equal(t, "PRV-x", p.ID)
			}
			assert.Equal(t, tt.leftOver, c.Pending() != nil)
		})
	}

	t.Run("empty slot", func(t *testing.T) {
		c := NewContext("")
		_, ok := c.TakePending(types.KindOrder)
		assert.False(t, ok)
	})
}

func TestClearPending(t *testing.T) {
	c := NewContext("")
	assert.Nil(t, c.ClearPending())

	c.SetPending(&types.PendingAction{ID: "PRV-d", Kind: types.KindBooking, Status: types.StatusPending})
	dropped := c.ClearPending()
	require.NotNil(t, dropped)
	assert.Equal(t, "PRV-d", dropped.ID)
	assert.Nil(t, c.Pending())
}

func TestOptionByNumber(t *testing.T) {
	c := NewContext("")

	_, ok := c.OptionByNumber(1)
	assert.False(t, ok, "no results yet")

	c.SetLastResults([]LookupOption{
		{Ref: "SB101", Label: "SB101 New York 09:00"},
		{Ref: "SB205", Label: "SB205 New York 14:30"},
	})

	opt, ok := c.OptionByNumber(2)
	require.True(t, ok)
	assert.Equal(t, "SB205", opt.Ref)
	assert.Equal(t, 2, opt.Number)

	_, ok = c.OptionByNumber(0)
	assert.False(t, ok)
	_, ok = c.OptionByNumber(3)
	assert.False(t, ok)

	// a newer lookup replaces the numbering wholesale
	c.SetLastResults([]LookupOption{{Ref: "SB300", Label: "SB300"}})
	_, ok = c.OptionByNumber(2)
	assert.False(t, ok)
}

func TestTranscriptOrdered(t *testing.T) {
	c := NewContext("")
	c.AppendUser("hello")
	c.AppendAssistant("hi, how can I help?")
	c.AppendUser("book a table")

	msgs := c.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, types.RoleUser, msgs[0].Role)
	assert.Equal(t, types.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "book a table", msgs[2].Content)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}

	// returned slice is a copy
	msgs[0].Content = "mutated"
	assert.Equal(t, "hello", c.Transcript()[0].Content)
}

func TestSessionMetrics(t *testing.T) {
	c := NewContext("")
	c.AppendUser("one")
	c.AppendUser("two")
	c.CountToolCall()
	c.CountHandoff()
	c.CountClassificationFailure()

	m := c.SessionMetrics()
	assert.Equal(t, 2, m.Turns)
	assert.Equal(t, 1, m.ToolCalls)
	assert.Equal(t, 1, m.Handoffs)
	assert.Equal(t, 1, m.ClassificationFailures)
}

func TestFillerCancel(t *testing.T) {
	c := NewContext("")

	fired := make(chan struct{}, 2)
	c.SetFillerCancel(func() { fired <- struct{}{} })

	// installing a new handle cancels the previous one
	c.SetFillerCancel(func() { fired <- struct{}{} })
	assert.Len(t, fired, 1)

	c.CancelFiller()
	assert.Len(t, fired, 2)

	// idempotent when nothing is in flight
	c.CancelFiller()
	assert.Len(t, fired, 2)
}

func TestEnding(t *testing.T) {
	c := NewContext("")
	assert.False(t, c.Ending())
	c.MarkEnding()
	assert.True(t, c.Ending())
}

func TestTurnLockSerialises(t *testing.T) {
	c := NewContext("")
	var order []int
	var wg sync.WaitGroup

	c.BeginTurn()
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.BeginTurn()
		order = append(order, 2)
		c.EndTurn()
	}()
	order = append(order, 1)
	c.EndTurn()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, order)
}

func TestJournalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.jsonl")
	j := NewJournal(path, nil)

	c := NewContext("call-7")
	c.AppendUser("hello")
	c.AppendAssistant("hi there")
	c.CountToolCall()

	j.Write(c)
	j.Write(c)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, "call-7", lines[0].SessionID)
	assert.Equal(t, 1, lines[0].Metrics.Turns)
	assert.Equal(t, 1, lines[0].Metrics.ToolCalls)
	require.Len(t, lines[0].Conversation, 2)
	assert.Equal(t, "hello", lines[0].Conversation[0].Content)
}

func TestJournalBadPathDoesNotPanic(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "missing", "deep", "sessions.jsonl"), nil)
	c := NewContext("")
	assert.NotPanics(t, func() { j.Write(c) })
}
