package runtime

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/router"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Farewell is spoken when the caller says goodbye.
const Farewell = "Thank you for calling. Goodbye!"

const retryPrompt = "I'm sorry, something went wrong on our end. Could you say that again?"

// closingRe matches utterances that end the call on their own.
var closingRe = regexp.MustCompile(`(?i)^\s*(bye|goodbye|see you|see ya|later|thanks|thank you|that's it|done)[.!?]?\s*$`)

// TurnMetrics receives per-turn counters. Satisfied by the metrics
// collector; a nil value disables reporting.
type TurnMetrics interface {
	TurnHandled(domain types.Domain, d time.Duration)
	ToolInvoked(domain types.Domain, tool string, success bool)
}

// Engine drives one conversation turn at a time: transcript bookkeeping,
// closing detection, dispatch vs. tool planning, and handoff application.
// Turns on the same session are strictly serialized.
type Engine struct {
	planner     *Planner
	router      *router.Router
	coordinator *agent.Coordinator
	metrics     TurnMetrics
	logger      *zap.Logger
}

// NewEngine wires the engine. metrics may be nil.
func NewEngine(planner *Planner, rt *router.Router, coordinator *agent.Coordinator,
	metrics TurnMetrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		planner:     planner,
		router:      rt,
		coordinator: coordinator,
		metrics:     metrics,
		logger:      logger.With(zap.String("component", "engine")),
	}
}

// HandleTurn processes one caller utterance and returns the text to speak.
// It never returns an empty reply; failures of any collaborator degrade to
// a spoken apology rather than a dead line.
func (e *Engine) HandleTurn(ctx context.Context, sess *session.Context, utterance string) string {
	sess.BeginTurn()
	defer sess.EndTurn()

	start := time.Now()
	sess.AppendUser(utterance)

	domain := types.DomainDispatcher
	if a := sess.ActiveAgent(); a != nil {
		domain = a.Domain()
	}
	defer func() {
		if e.metrics != nil {
			e.metrics.TurnHandled(domain, time.Since(start))
		}
	}()

	if closingRe.MatchString(utterance) {
		sess.CancelFiller()
		sess.MarkEnding()
		sess.AppendAssistant(Farewell)
		return Farewell
	}

	defer sess.CancelFiller()

	reply := e.dispatch(ctx, sess, domain, utterance)
	sess.AppendAssistant(reply)
	return reply
}

func (e *Engine) dispatch(ctx context.Context, sess *session.Context, domain types.Domain, utterance string) string {
	if domain == types.DomainDispatcher {
		return e.router.Route(ctx, sess, utterance)
	}

	active, ok := sess.ActiveAgent().(agent.Agent)
	if !ok {
		e.logger.Error("active agent lacks a tool surface",
			zap.String("session_id", sess.ID), zap.String("domain", string(domain)))
		return retryPrompt
	}

	plan, err := e.planner.Plan(ctx, active, sess, utterance)
	if err != nil {
		e.logger.Info("turn not plannable",
			zap.String("session_id", sess.ID),
			zap.String("domain", string(domain)),
			zap.Error(err))
		sess.CountClassificationFailure()
		return "I didn't quite catch that. Could you rephrase it for me?"
	}

	if plan.Tool == "" {
		return plan.Reply
	}

	tool, ok := agent.FindTool(active, plan.Tool)
	if !ok {
		e.logger.Warn("planned tool not offered by the active agent",
			zap.String("session_id", sess.ID),
			zap.String("domain", string(domain)),
			zap.String("tool", plan.Tool))
		return retryPrompt
	}
	outcome, err := tool.Invoke(ctx, sess, plan.Args)
	sess.CountToolCall()
	if e.metrics != nil {
		e.metrics.ToolInvoked(domain, plan.Tool, err == nil)
	}
	if err != nil {
		return e.speakError(sess, domain, plan.Tool, err)
	}

	if outcome.Handoff != nil {
		spoken, terr := e.coordinator.Transfer(sess, outcome.Handoff)
		if terr != nil {
			e.logger.Error("handoff failed",
				zap.String("session_id", sess.ID),
				zap.String("target", string(outcome.Handoff.Target)),
				zap.Error(terr))
			return retryPrompt
		}
		return spoken
	}

	return outcome.Reply
}

// speakError maps a tool failure onto something the caller can act on.
// Caller-correctable errors are spoken as-is; everything else is a generic
// retry prompt, with the detail kept in the log.
func (e *Engine) speakError(sess *session.Context, domain types.Domain, tool string, err error) string {
	var terr *types.Error
	if errors.As(err, &terr) {
		switch terr.Code {
		case types.ErrValidation, types.ErrNotFound:
			return terr.Message
		case types.ErrNoPending:
			return "There's nothing staged for me to act on. Shall we set it up first?"
		}
	}

	e.logger.Error("tool failed",
		zap.String("session_id", sess.ID),
		zap.String("domain", string(domain)),
		zap.String("tool", tool),
		zap.Error(err))
	return retryPrompt
}
