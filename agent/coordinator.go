package agent

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// TransferMetrics receives handoff counters. Satisfied by the metrics
// collector; a nil value disables reporting.
type TransferMetrics interface {
	HandoffPerformed(from, to types.Domain)
	PendingDropped(kind types.ActionKind)
}

// Coordinator applies handoff outcomes: it resolves the target through the
// registry, drops any unconfirmed pending action, and swaps the session's
// active bundle in one step.
type Coordinator struct {
	registry *Registry
	metrics  TransferMetrics
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator over the registry.
func NewCoordinator(registry *Registry, metrics TransferMetrics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With(zap.String("component", "coordinator")),
	}
}

// Transfer moves the session to the handoff target and returns the text to
// speak. Unconfirmed pending actions do not survive a transfer; the returned
// utterance tells the caller what was discarded so nothing is silently lost.
func (c *Coordinator) Transfer(sess *session.Context, h *Handoff) (string, error) {
	target, err := c.registry.New(h.Target)
	if err != nil {
		return "", types.NewError(types.ErrCollaborator,
			fmt.Sprintf("transfer to %q failed", h.Target)).WithCause(err)
	}

	var from types.Domain
	if cur := sess.ActiveAgent(); cur != nil {
		from = cur.Domain()
	}

	utterance := h.TransitionText
	if dropped := sess.ClearPending(); dropped != nil && dropped.Status == types.StatusPending {
		utterance = fmt.Sprintf("%s Note that your unconfirmed %s was discarded.",
			utterance, dropped.Kind)
		if c.metrics != nil {
			c.metrics.PendingDropped(dropped.Kind)
		}
		c.logger.Info("pending action dropped on transfer",
			zap.String("session_id", sess.ID),
			zap.String("kind", string(dropped.Kind)),
			zap.String("pending_id", dropped.ID))
	}

	sess.SetActiveAgent(target)
	sess.CountHandoff()
	if c.metrics != nil {
		c.metrics.HandoffPerformed(from, h.Target)
	}

	c.logger.Info("session transferred",
		zap.String("session_id", sess.ID),
		zap.String("from", string(from)),
		zap.String("to", string(h.Target)))

	if utterance == "" {
		utterance = target.Greeting()
	}
	return utterance, nil
}
