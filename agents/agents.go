// Package agents contains the concrete capability bundles: the dispatcher
// and the six department bundles it can transfer callers to. Bundles hold
// no per-caller state of their own; everything mutable lives on the session
// or in the injected stores.
package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/kb"
	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/notify"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/store"
	"github.com/voicedesk/voicedesk/types"
)

// NotifyMetrics counts undeliverable confirmation messages.
type NotifyMetrics interface {
	NotifyFailed()
}

// Deps carries everything the bundles need. All fields are injected; the
// bundles never construct their own collaborators.
type Deps struct {
	LLM       llm.Client
	ChatModel string

	Airline    *store.AirlineStore
	Healthcare *store.HealthcareStore
	Restaurant *store.RestaurantStore
	Insurance  *store.InsuranceStore
	Logistics  *store.LogisticsStore
	Company    *store.CompanyStore

	KB         *kb.Library
	KBSelector *kb.Selector

	Notifier notify.Notifier
	Metrics  NotifyMetrics
	Logger   *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// RegisterAll installs a factory for every bundle, dispatcher included.
func RegisterAll(reg *agent.Registry, deps Deps) {
	reg.Register(types.DomainDispatcher, func() agent.Agent { return NewDispatcher(deps) })
	reg.Register(types.DomainAirline, func() agent.Agent { return NewAirline(deps) })
	reg.Register(types.DomainHealthcare, func() agent.Agent { return NewHealthcare(deps) })
	reg.Register(types.DomainRestaurant, func() agent.Agent { return NewRestaurant(deps) })
	reg.Register(types.DomainInsurance, func() agent.Agent { return NewInsurance(deps) })
	reg.Register(types.DomainLogistics, func() agent.Agent { return NewLogistics(deps) })
	reg.Register(types.DomainCompany, func() agent.Agent { return NewCompany(deps) })
}

// transferToDispatcher is carried by every department so a caller can
// always be handed back to the front desk for rerouting.
func transferToDispatcher() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name: "transfer_to_dispatcher",
			Description: "Send the caller back to the front desk, for requests " +
				"this department cannot help with.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.HandoffOutcome(types.DomainDispatcher,
				"Let me take you back to our front desk."), nil
		},
	}
}

// transferTools builds the handoff tools a department carries: one per
// sibling department plus the dispatcher fallback. self is excluded so a
// bundle never offers a transfer to itself.
func transferTools(self types.Domain) []agent.Tool {
	tools := []agent.Tool{transferToDispatcher()}
	for _, target := range types.RoutableDomains() {
		if target == self {
			continue
		}
		tools = append(tools, transferTo(target))
	}
	return tools
}

func transferTo(target types.Domain) agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name: "transfer_to_" + string(target),
			Description: "Hand the caller over to the " + target.DisplayName() +
				" department when their request belongs there.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.HandoffOutcome(target,
				"Let me connect you with our "+target.DisplayName()+" team."), nil
		},
	}
}

// sendConfirmation delivers a confirmation message without ever failing the
// action that triggered it.
func sendConfirmation(ctx context.Context, deps Deps, to, subject, body string) {
	if deps.Notifier == nil || to == "" {
		return
	}
	if err := deps.Notifier.Send(ctx, to, subject, body); err != nil {
		deps.logger().Warn("confirmation message not delivered",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		if deps.Metrics != nil {
			deps.Metrics.NotifyFailed()
		}
	}
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string) int {
	n, _ := args[name].(int)
	return n
}

func floatArg(args map[string]any, name string) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func stringsArg(args map[string]any, name string) []string {
	ss, _ := args[name].([]string)
	return ss
}
