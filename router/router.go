package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Apology is spoken whenever a request cannot be routed. The caller stays
// with the dispatcher and can simply rephrase.
const Apology = "Sorry, I couldn't identify which department can help with that. Could you rephrase your request?"

// RouteMetrics receives routing counters. A nil value disables reporting.
type RouteMetrics interface {
	ClassificationFailed()
}

// Router drives the dispatcher: classify the utterance, then hand the
// session to the chosen department.
type Router struct {
	classifier  Classifier
	coordinator *agent.Coordinator
	metrics     RouteMetrics
	logger      *zap.Logger
}

// New creates a router.
func New(classifier Classifier, coordinator *agent.Coordinator, metrics RouteMetrics, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		classifier:  classifier,
		coordinator: coordinator,
		metrics:     metrics,
		logger:      logger.With(zap.String("component", "router")),
	}
}

// Route classifies the utterance and transfers the session. The returned
// text is always speakable: a transition on success, the apology otherwise.
// Routing never fails the call.
func (r *Router) Route(ctx context.Context, sess *session.Context, utterance string) string {
	decision, err := r.classifier.Classify(ctx, utterance)
	if err != nil {
		var terr *types.Error
		if !errors.As(err, &terr) || terr.Code != types.ErrClassification {
			r.logger.Error("classifier failed unexpectedly",
				zap.String("session_id", sess.ID), zap.Error(err))
		} else {
			r.logger.Info("request not routable",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
		sess.CountClassificationFailure()
		if r.metrics != nil {
			r.metrics.ClassificationFailed()
		}
		return Apology
	}

	text := transitionText(decision)
	spoken, err := r.coordinator.Transfer(sess, &agent.Handoff{
		Target:         decision.Domain,
		TransitionText: text,
	})
	if err != nil {
		r.logger.Error("transfer after classification failed",
			zap.String("session_id", sess.ID),
			zap.String("domain", string(decision.Domain)),
			zap.Error(err))
		return Apology
	}

	r.logger.Info("caller routed",
		zap.String("session_id", sess.ID),
		zap.String("domain", string(decision.Domain)),
		zap.String("tool_hint", decision.Tool))
	return spoken
}

func transitionText(d Decision) string {
	if d.Tool == "" {
		return fmt.Sprintf("Switching you to our %s team.", d.Domain.DisplayName())
	}
	return fmt.Sprintf("Switching you to our %s team for %s.", d.Domain.DisplayName(), d.Tool)
}
