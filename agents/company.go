package agents

import (
	"context"
	"fmt"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/confirm"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Company answers questions about the business itself from the markdown
// knowledge library and takes contact requests.
type Company struct {
	deps Deps
}

// NewCompany creates a fresh company information bundle.
func NewCompany(deps Deps) *Company {
	return &Company{deps: deps}
}

func (c *Company) Domain() types.Domain { return types.DomainCompany }
func (c *Company) Name() string         { return "Company Information Desk" }

func (c *Company) Greeting() string {
	return "Company information desk, hello. What would you like to know?"
}

func (c *Company) Instructions() string {
	return "You are the company information desk. Answer questions about the " +
		"company, its leadership, products and services from the knowledge " +
		"documents only; never invent facts. For anything the documents don't " +
		"cover, offer to take a contact request and read it back before submitting."
}

type contactDraft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (c *Company) Tools() []agent.Tool {
	return append([]agent.Tool{
		c.companyInfo(),
		c.readDocument("get_leadership_team", "leadership_team", "Read out who runs the company."),
		c.readDocument("get_products", "products", "Read out the product lineup."),
		c.readDocument("get_services", "services", "Read out the services we offer."),
		c.previewContactRequest(),
		c.confirmContactRequest(),
		c.cancelPendingContactRequest(),
	}, transferTools(types.DomainCompany)...)
}

func (c *Company) companyInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_company_info",
			Description: "Answer a question about the company from the knowledge base.",
			Parameters: []types.Param{
				{Name: "query", Type: types.ParamString, Required: true, MinLen: 3},
			},
		},
		Handler: func(ctx context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			doc, err := c.deps.KB.Document("about_company")
			if err != nil {
				return agent.Outcome{}, err
			}
			sec, err := c.deps.KBSelector.Select(ctx, doc, stringArg(args, "query"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(sec.Body), nil
		},
	}
}

func (c *Company) readDocument(toolName, docName, description string) agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        toolName,
			Description: description,
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			doc, err := c.deps.KB.Document(docName)
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(doc.Text()), nil
		},
	}
}

func (c *Company) previewContactRequest() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "preview_contact_request",
			Description: "Stage a contact request for confirmation.",
			Parameters: []types.Param{
				{Name: "name", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "phone", Type: types.ParamString, Format: types.FormatPhone},
				{Name: "subject", Type: types.ParamString, Required: true, MinLen: 3},
				{Name: "message", Type: types.ParamString, Required: true, MinLen: 10},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			draft := contactDraft{
				Name:    stringArg(args, "name"),
				Email:   stringArg(args, "email"),
				Phone:   stringArg(args, "phone"),
				Subject: stringArg(args, "subject"),
				Message: stringArg(args, "message"),
			}
			summary := fmt.Sprintf("a contact request about %q from %s, reachable at %s",
				draft.Subject, draft.Name, draft.Email)

			_, replaced, err := confirm.Stage(sess, types.KindContactRequest, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("I have %s. Shall I submit it?", summary)
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (c *Company) confirmContactRequest() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_contact_request",
			Description: "Submit the staged contact request after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindContactRequest)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft contactDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged contact request could not be decoded").WithCause(err)
			}

			req := c.deps.Company.CreateContactRequest(draft.Name, draft.Email,
				draft.Phone, draft.Subject, draft.Message)

			sendConfirmation(ctx, c.deps, draft.Email, "Your Contact Request Has Been Received",
				fmt.Sprintf("Hi %s,\n\nThank you for contacting us regarding %q. Our team will review your message and get back to you shortly.\n\nReference: %s",
					draft.Name, draft.Subject, req.ID))

			return agent.ReplyOutcome(fmt.Sprintf(
				"Your request is submitted under reference %s. Our team will reach out to you at %s.",
				req.ID, draft.Email)), nil
		},
	}
}

func (c *Company) cancelPendingContactRequest() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_contact_request",
			Description: "Discard the staged contact request instead of submitting it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindContactRequest); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("No problem, I've discarded that request. Anything else?"), nil
		},
	}
}
