package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/voicedesk/types"
)

// Agent is the minimal view of a capability bundle the session tracks.
// The full bundle contract lives in the agent package; keeping this view
// narrow avoids an import cycle between session state and capabilities.
type Agent interface {
	Domain() types.Domain
}

// LookupOption is one entry of the most recent list-type lookup result,
// referenced by follow-up "pick option N" requests. Numbering is 1-based.
type LookupOption struct {
	Number int    `json:"number"`
	Ref    string `json:"ref"`
	Label  string `json:"label"`
}

// Metrics are the per-session counters journalled at disconnect.
type Metrics struct {
	Turns                  int `json:"turns"`
	ToolCalls              int `json:"tool_calls"`
	Handoffs               int `json:"handoffs"`
	ClassificationFailures int `json:"classification_failures"`
}

// Context is the per-call mutable state carried across turns and handoffs.
type Context struct {
	ID        string
	StartedAt time.Time

	// turnMu serialises whole turns: one utterance's tool calls complete
	// before the next utterance is handled.
	turnMu sync.Mutex

	mu           sync.RWMutex
	active       Agent
	pending      *types.PendingAction
	lastResults  []LookupOption
	transcript   []types.Message
	metrics      Metrics
	ending       bool
	fillerCancel context.CancelFunc
}

// NewContext creates a fresh session context. An empty id gets a generated one.
func NewContext(id string) *Context {
	if id == "" {
		id = uuid.NewString()
	}
	return &Context{
		ID:        id,
		StartedAt: time.Now(),
	}
}

// BeginTurn acquires the turn lock. Turns within one session never overlap.
func (c *Context) BeginTurn() { c.turnMu.Lock() }

// EndTurn releases the turn lock.
func (c *Context) EndTurn() { c.turnMu.Unlock() }

// ActiveAgent returns the currently controlling capability bundle.
// Callers must resolve through this on every dispatch; holding a bundle
// across turns would race a concurrent handoff.
func (c *Context) ActiveAgent() Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SetActiveAgent replaces the controlling bundle wholesale.
func (c *Context) SetActiveAgent(a Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = a
}

// SetPending stages a pending action, replacing any previous one
// (last-preview-wins). It reports whether a previous pending preview was
// overwritten.
func (c *Context) SetPending(p *types.PendingAction) (replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	replaced = c.pending != nil && c.pending.Status == types.StatusPending
	c.pending = p
	return replaced
}

// Pending returns the outstanding pending action, or nil.
func (c *Context) Pending() *types.PendingAction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// TakePending removes and returns the pending action if one exists and its
// kind matches. An empty kind matches any. A mismatch or empty slot returns
// ok=false and leaves the slot untouched.
func (c *Context) TakePending(kind types.ActionKind) (*types.PendingAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil, false
	}
	if kind != "" && c.pending.Kind != kind {
		return nil, false
	}
	p := c.pending
	c.pending = nil
	return p, true
}

// ClearPending drops any pending action, returning what was dropped.
func (c *Context) ClearPending() *types.PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// SetLastResults stores the most recent list-type lookup result, renumbering
// the options from 1.
func (c *Context) SetLastResults(opts []LookupOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResults = make([]LookupOption, len(opts))
	copy(c.lastResults, opts)
	for i := range c.lastResults {
		c.lastResults[i].Number = i + 1
	}
}

// LastResults returns a copy of the most recent lookup result.
func (c *Context) LastResults() []LookupOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]LookupOption, len(c.lastResults))
	copy(out, c.lastResults)
	return out
}

// OptionByNumber resolves a 1-based "pick option N" reference. Out-of-range
// picks return ok=false; callers surface that to the user, never as a fault.
func (c *Context) OptionByNumber(n int) (LookupOption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n < 1 || n > len(c.lastResults) {
		return LookupOption{}, false
	}
	return c.lastResults[n-1], true
}

// AppendUser appends a user entry to the transcript and bumps the turn count.
func (c *Context) AppendUser(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, types.NewUserMessage(text))
	c.metrics.Turns++
}

// AppendAssistant appends an assistant entry to the transcript.
func (c *Context) AppendAssistant(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, types.NewAssistantMessage(text))
}

// Transcript returns a copy of the ordered transcript.
func (c *Context) Transcript() []types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// CountToolCall bumps the per-session tool call counter.
func (c *Context) CountToolCall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.ToolCalls++
}

// CountHandoff bumps the per-session handoff counter.
func (c *Context) CountHandoff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Handoffs++
}

// CountClassificationFailure bumps the per-session classification failure
// counter.
func (c *Context) CountClassificationFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.ClassificationFailures++
}

// SessionMetrics returns a snapshot of the per-session counters.
func (c *Context) SessionMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// MarkEnding flags the session as closing; filler scheduling is suppressed
// from here on.
func (c *Context) MarkEnding() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ending = true
}

// Ending reports whether a closing utterance was detected.
func (c *Context) Ending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ending
}

// SetFillerCancel installs the cancellation handle for an in-flight filler
// task, cancelling any previous one. The handle is owned here so background
// audio never synchronises through closure-captured state.
func (c *Context) SetFillerCancel(cancel context.CancelFunc) {
	c.mu.Lock()
	prev := c.fillerCancel
	c.fillerCancel = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// CancelFiller cancels any in-flight filler task.
func (c *Context) CancelFiller() {
	c.SetFillerCancel(nil)
}
