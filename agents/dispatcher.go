package agents

import (
	"fmt"
	"strings"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/types"
)

// Dispatcher is the front desk. It exposes no tools of its own: the router
// classifies the caller's request and moves the session to a department.
type Dispatcher struct {
	deps Deps
}

// NewDispatcher creates a fresh dispatcher bundle.
func NewDispatcher(deps Deps) *Dispatcher {
	return &Dispatcher{deps: deps}
}

func (d *Dispatcher) Domain() types.Domain { return types.DomainDispatcher }
func (d *Dispatcher) Name() string         { return "Front Desk" }

func (d *Dispatcher) Greeting() string {
	return "Hello, thanks for calling. How can I help you today?"
}

func (d *Dispatcher) Instructions() string {
	teams := make([]string, 0, len(types.RoutableDomains()))
	for _, dom := range types.RoutableDomains() {
		teams = append(teams, dom.DisplayName())
	}
	return fmt.Sprintf(
		"You are the front desk of a phone concierge. Greet callers warmly, "+
			"find out what they need, and connect them with the right team. "+
			"Available teams: %s. Keep replies to one or two short spoken sentences.",
		strings.Join(teams, ", "))
}

func (d *Dispatcher) Tools() []agent.Tool { return nil }
