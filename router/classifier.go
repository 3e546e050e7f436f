package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/types"
)

// Decision is a bounded classification result. Domain is empty when the
// request could not be mapped onto a department. Tool is a best-effort hint
// at the operation the caller wants; it is display-only and never executed
// directly.
type Decision struct {
	Domain types.Domain
	Tool   string
}

// Classifier maps a caller utterance onto the closed domain set.
type Classifier interface {
	Classify(ctx context.Context, utterance string) (Decision, error)
}

// domainHints describe each department to the classifier model.
var domainHints = map[types.Domain]string{
	types.DomainHealthcare: "doctor appointments, symptoms, prescriptions, medical questions",
	types.DomainAirline:    "flight search, flight booking, baggage, check-in, loyalty miles",
	types.DomainRestaurant: "table reservations, menu questions, food orders, delivery",
	types.DomainInsurance:  "policies, premiums, claims, coverage questions",
	types.DomainLogistics:  "parcel pickup, shipment tracking, courier service, delivery pricing",
	types.DomainCompany:    "questions about the company itself, offices, careers, leadership",
}

// LLMClassifier asks a small model for a {domain, tool} JSON verdict.
type LLMClassifier struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewLLMClassifier creates a classifier over the model.
func NewLLMClassifier(client llm.Client, model string, logger *zap.Logger) *LLMClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMClassifier{
		client: client,
		model:  model,
		logger: logger.With(zap.String("component", "classifier")),
	}
}

func classifierPrompt() string {
	var b strings.Builder
	b.WriteString("You route callers of a phone concierge to the right department.\n")
	b.WriteString("Departments:\n")
	for _, d := range types.RoutableDomains() {
		fmt.Fprintf(&b, "- %s: %s\n", d, domainHints[d])
	}
	b.WriteString("\nRespond with JSON only: {\"domain\": <department or null>, \"tool\": <short operation hint or null>}.\n")
	b.WriteString("Use null for domain when no department fits.")
	return b.String()
}

type verdict struct {
	Domain *string `json:"domain"`
	Tool   *string `json:"tool"`
}

// Classify returns a bounded decision. Model failures and out-of-set answers
// both come back as a CLASSIFICATION_FAILED error; the router speaks an
// apology for those.
func (c *LLMClassifier) Classify(ctx context.Context, utterance string) (Decision, error) {
	raw, err := c.client.Complete(ctx, llm.Request{
		System:    classifierPrompt(),
		User:      utterance,
		Model:     c.model,
		MaxTokens: 100,
	})
	if err != nil {
		return Decision{}, types.NewError(types.ErrClassification,
			"routing model unavailable").WithCause(err).WithRetryable(true)
	}

	var v verdict
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		c.logger.Warn("unparseable classifier verdict", zap.String("raw", raw))
		return Decision{}, types.NewError(types.ErrClassification,
			"routing model returned malformed output").WithCause(err)
	}

	if v.Domain == nil {
		return Decision{}, types.NewError(types.ErrClassification,
			"no department matched the request")
	}
	domain, ok := types.ParseDomain(strings.ToLower(strings.TrimSpace(*v.Domain)))
	if !ok || domain == types.DomainDispatcher {
		c.logger.Warn("classifier produced out-of-set domain", zap.String("domain", *v.Domain))
		return Decision{}, types.NewError(types.ErrClassification,
			fmt.Sprintf("unknown department %q", *v.Domain))
	}

	d := Decision{Domain: domain}
	if v.Tool != nil {
		d.Tool = strings.TrimSpace(*v.Tool)
	}
	return d, nil
}

// stripFences removes a markdown code fence wrapper, with or without a
// language tag. Chat models add these even when told not to.
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
