package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/confirm"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Insurance handles policy, payment and claim queries for the demo insurer
// SecureLife.
type Insurance struct {
	deps Deps
}

// NewInsurance creates a fresh insurance bundle.
func NewInsurance(deps Deps) *Insurance {
	return &Insurance{deps: deps}
}

func (in *Insurance) Domain() types.Domain { return types.DomainInsurance }
func (in *Insurance) Name() string         { return "SecureLife Insurance" }

func (in *Insurance) Greeting() string {
	return "You're through to SecureLife Insurance. How can I help?"
}

func (in *Insurance) Instructions() string {
	return "You are a SecureLife Insurance phone agent. Answer policy and " +
		"coverage questions, look up accounts by email, and file claims. Ask " +
		"for the caller's account email before reading out anything personal. " +
		"Read every claim preview back and wait for an explicit yes before filing."
}

type claimDraft struct {
	Email        string `json:"email"`
	PolicyNumber string `json:"policy_number"`
	ClaimType    string `json:"claim_type"`
	IncidentDate string `json:"incident_date"`
	Description  string `json:"description"`
}

func (in *Insurance) Tools() []agent.Tool {
	return append([]agent.Tool{
		in.policyDetails(),
		in.myPolicies(),
		in.paymentHistory(),
		in.myClaims(),
		in.contactInfo(),
		in.previewClaim(),
		in.confirmClaim(),
		in.cancelPendingClaim(),
	}, transferTools(types.DomainInsurance)...)
}

func (in *Insurance) contactInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_contact_info",
			Description: "Read out the insurer's contact details and office hours.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			c := in.deps.Insurance.ContactInfo()
			return agent.ReplyOutcome(fmt.Sprintf(
				"You can reach us on %s or at %s. Our office is at %s, open %s.",
				c.Phone, c.Email, c.Address, c.OfficeHours)), nil
		},
	}
}

func (in *Insurance) policyDetails() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_policy_details",
			Description: "Describe one of our policy products.",
			Parameters: []types.Param{
				{Name: "policy_type", Type: types.ParamString, Required: true,
					Enum: []string{"car insurance", "travel insurance", "health insurance", "life insurance"}},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			info, err := in.deps.Insurance.PolicyTypeInfo(stringArg(args, "policy_type"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(info), nil
		},
	}
}

func (in *Insurance) myPolicies() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_my_policies",
			Description: "List the caller's policies by account email.",
			Parameters: []types.Param{
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			email := stringArg(args, "email")
			policies, err := in.deps.Insurance.PoliciesByEmail(email)
			if err != nil {
				return agent.Outcome{}, err
			}
			if len(policies) == 0 {
				return agent.ReplyOutcome("You have no policies on this account."), nil
			}

			lines := make([]string, len(policies))
			for i, p := range policies {
				lines[i] = fmt.Sprintf("%s, policy %s, %s coverage, premium %d rupees, next due %s, %s",
					p.Type, p.Number, p.Coverage, p.Premium, p.NextDue, strings.ToLower(p.Status))
			}
			return agent.ReplyOutcome("You have " + strings.Join(lines, ". Also ") + "."), nil
		},
	}
}

func (in *Insurance) paymentHistory() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_payment_history",
			Description: "Read out the caller's premium payments by account email.",
			Parameters: []types.Param{
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			payments, err := in.deps.Insurance.PaymentsByEmail(stringArg(args, "email"))
			if err != nil {
				return agent.Outcome{}, err
			}
			if len(payments) == 0 {
				return agent.ReplyOutcome("There are no payments on record for this account."), nil
			}

			lines := make([]string, len(payments))
			for i, p := range payments {
				lines[i] = fmt.Sprintf("%d rupees on %s for policy %s via %s",
					p.Amount, p.Date, p.PolicyNumber, strings.ToLower(p.Method))
			}
			return agent.ReplyOutcome("I see " + strings.Join(lines, ", then ") + "."), nil
		},
	}
}

func (in *Insurance) myClaims() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_my_claims",
			Description: "Read out the caller's filed claims by account email.",
			Parameters: []types.Param{
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			claims, err := in.deps.Insurance.ClaimsByEmail(stringArg(args, "email"))
			if err != nil {
				return agent.Outcome{}, err
			}
			if len(claims) == 0 {
				return agent.ReplyOutcome("You have no claims on file."), nil
			}

			lines := make([]string, len(claims))
			for i, c := range claims {
				lines[i] = fmt.Sprintf("claim %s for %s on policy %s, currently %s",
					c.ID, strings.ToLower(c.Type), c.PolicyNumber, strings.ToLower(c.Status))
			}
			return agent.ReplyOutcome("You have " + strings.Join(lines, ". Also ") + "."), nil
		},
	}
}

func (in *Insurance) previewClaim() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "preview_claim",
			Description: "Stage a new claim for confirmation.",
			Parameters: []types.Param{
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "policy_number", Type: types.ParamString, Required: true, MinLen: 6},
				{Name: "claim_type", Type: types.ParamString, Required: true, MinLen: 3},
				{Name: "incident_date", Type: types.ParamString, Required: true, Format: types.FormatDate},
				{Name: "description", Type: types.ParamString, Required: true, MinLen: 10},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			email := stringArg(args, "email")
			policy := stringArg(args, "policy_number")
			if _, err := in.deps.Insurance.CustomerName(email); err != nil {
				return agent.Outcome{}, err
			}
			if !in.deps.Insurance.OwnsPolicy(email, policy) {
				return agent.Outcome{}, types.NewError(types.ErrValidation,
					fmt.Sprintf("policy %s is not on your account", strings.ToUpper(policy))).WithField("policy_number")
			}

			draft := claimDraft{
				Email:        email,
				PolicyNumber: strings.ToUpper(policy),
				ClaimType:    stringArg(args, "claim_type"),
				IncidentDate: stringArg(args, "incident_date"),
				Description:  stringArg(args, "description"),
			}
			summary := fmt.Sprintf("a %s claim on policy %s for an incident on %s",
				draft.ClaimType, draft.PolicyNumber, draft.IncidentDate)

			_, replaced, err := confirm.Stage(sess, types.KindClaim, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("I'm ready to file %s. Shall I go ahead?", summary)
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (in *Insurance) confirmClaim() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_claim",
			Description: "File the staged claim after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindClaim)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft claimDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged claim could not be decoded").WithCause(err)
			}

			c, err := in.deps.Insurance.FileClaim(draft.Email, draft.PolicyNumber,
				draft.ClaimType, draft.IncidentDate, draft.Description)
			if err != nil {
				return agent.Outcome{}, err
			}

			sendConfirmation(ctx, in.deps, draft.Email, "Your SecureLife Claim "+c.ID,
				fmt.Sprintf("Your claim has been filed and is under review.\n\nClaim: %s\nPolicy: %s\nType: %s\nIncident date: %s\n\nSecureLife Insurance",
					c.ID, c.PolicyNumber, c.Type, c.IncidentDate))

			return agent.ReplyOutcome(fmt.Sprintf(
				"Your claim is filed under reference %s and is now under review. You'll get an email shortly.",
				c.ID)), nil
		},
	}
}

func (in *Insurance) cancelPendingClaim() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_claim",
			Description: "Discard the staged claim instead of filing it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindClaim); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("Understood, I've discarded that claim. Anything else?"), nil
		},
	}
}
