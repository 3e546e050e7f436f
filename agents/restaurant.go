package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/confirm"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Restaurant handles table reservations and food orders for the demo
// restaurant La Tavola.
type Restaurant struct {
	deps Deps
}

// NewRestaurant creates a fresh restaurant bundle.
func NewRestaurant(deps Deps) *Restaurant {
	return &Restaurant{deps: deps}
}

func (r *Restaurant) Domain() types.Domain { return types.DomainRestaurant }
func (r *Restaurant) Name() string         { return "La Tavola" }

func (r *Restaurant) Greeting() string {
	return "Welcome to La Tavola. Would you like a table or something to eat?"
}

func (r *Restaurant) Instructions() string {
	return "You are the phone host of La Tavola. Take table reservations and " +
		"food orders. Suggest matching sides and drinks once per order, never " +
		"pushily. Read every reservation or order preview back with the total " +
		"and wait for an explicit yes before confirming."
}

type reservationDraft struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	People int    `json:"people"`
}

type orderDraft struct {
	Items []string `json:"items"`
	Email string   `json:"email,omitempty"`
	Total int      `json:"total"`
}

func (r *Restaurant) Tools() []agent.Tool {
	return append([]agent.Tool{
		r.getMenu(),
		r.restaurantInfo(),
		r.previewReservation(),
		r.confirmReservation(),
		r.cancelPendingReservation(),
		r.cancelReservation(),
		r.previewOrder(),
		r.confirmOrder(),
		r.cancelPendingOrder(),
	}, transferTools(types.DomainRestaurant)...)
}

func (r *Restaurant) getMenu() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_menu",
			Description: "Read out the menu, optionally one category.",
			Parameters: []types.Param{
				{Name: "category", Type: types.ParamString, Description: "Category such as Starters, Main Course, Desserts or Drinks"},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			menu := r.deps.Restaurant.Menu()
			want := stringArg(args, "category")

			categories := make([]string, 0, len(menu))
			for c := range menu {
				categories = append(categories, c)
			}
			sort.Strings(categories)

			var parts []string
			for _, c := range categories {
				if want != "" && !strings.EqualFold(c, want) {
					continue
				}
				items := make([]string, len(menu[c]))
				for i, it := range menu[c] {
					items[i] = fmt.Sprintf("%s for %d rupees", it.Name, it.Price)
				}
				parts = append(parts, fmt.Sprintf("%s: %s.", c, strings.Join(items, ", ")))
			}
			if len(parts) == 0 {
				return agent.ReplyOutcome(fmt.Sprintf(
					"We don't have a %s section. We offer %s.", want, strings.Join(categories, ", "))), nil
			}
			return agent.ReplyOutcome(strings.Join(parts, " ")), nil
		},
	}
}

func (r *Restaurant) restaurantInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_restaurant_info",
			Description: "Read out the restaurant's address, contact details and opening hours.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			info := r.deps.Restaurant.Info()
			return agent.ReplyOutcome(fmt.Sprintf(
				"%s is at %s. You can call %s or write to %s. We're open daily from %s to %s.",
				info.Name, info.Address, info.Phone, info.Email, info.Open, info.Close)), nil
		},
	}
}

func (r *Restaurant) previewReservation() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "preview_reservation",
			Description: "Stage a table reservation for confirmation.",
			Parameters: []types.Param{
				{Name: "name", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "date", Type: types.ParamString, Required: true, Format: types.FormatFutureDate},
				{Name: "time", Type: types.ParamString, Required: true, Format: types.FormatClock},
				{Name: "people", Type: types.ParamInt, Required: true},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			people := intArg(args, "people")
			if people < 1 || people > 20 {
				return agent.Outcome{}, types.NewError(types.ErrValidation,
					"party size must be between 1 and 20").WithField("people")
			}
			if at := stringArg(args, "time"); !r.deps.Restaurant.WithinHours(at) {
				info := r.deps.Restaurant.Info()
				return agent.Outcome{}, types.NewError(types.ErrValidation,
					fmt.Sprintf("we're open from %s to %s, so %s won't work", info.Open, info.Close, at)).WithField("time")
			}

			draft := reservationDraft{
				Name:   stringArg(args, "name"),
				Email:  stringArg(args, "email"),
				Date:   stringArg(args, "date"),
				Time:   stringArg(args, "time"),
				People: people,
			}
			summary := fmt.Sprintf("a table for %d under %s on %s at %s",
				draft.People, draft.Name, draft.Date, draft.Time)

			_, replaced, err := confirm.Stage(sess, types.KindReservation, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("I have %s. Shall I confirm it?", summary)
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (r *Restaurant) confirmReservation() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_reservation",
			Description: "Book the staged reservation after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindReservation)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft reservationDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged reservation could not be decoded").WithCause(err)
			}

			res, err := r.deps.Restaurant.CreateReservation(draft.Name, draft.Email,
				draft.Date, draft.Time, draft.People)
			if err != nil {
				// slot taken since the preview; nothing was booked
				return agent.Outcome{}, err
			}

			sendConfirmation(ctx, r.deps, draft.Email, "Your La Tavola Reservation "+res.ID,
				fmt.Sprintf("Dear %s,\n\nYour table is booked.\n\nID: %s\nWhen: %s at %s\nParty: %d\n\nLa Tavola",
					draft.Name, res.ID, res.Date, res.Time, res.People))

			return agent.ReplyOutcome(fmt.Sprintf(
				"Your table is booked for %s at %s, reference %s. We look forward to seeing you.",
				res.Date, res.Time, res.ID)), nil
		},
	}
}

func (r *Restaurant) cancelPendingReservation() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_reservation",
			Description: "Discard the staged reservation instead of confirming it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindReservation); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("No problem, I've discarded that reservation. Anything else?"), nil
		},
	}
}

func (r *Restaurant) cancelReservation() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_reservation",
			Description: "Cancel an existing reservation by its ID.",
			Parameters: []types.Param{
				{Name: "reservation_id", Type: types.ParamString, Required: true, MinLen: 4},
			},
		},
		Handler: func(ctx context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			res, err := r.deps.Restaurant.CancelReservation(stringArg(args, "reservation_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			sendConfirmation(ctx, r.deps, res.Email, "Your La Tavola Reservation "+res.ID+" Is Cancelled",
				fmt.Sprintf("Dear %s,\n\nYour reservation %s for %s at %s has been cancelled.\n\nLa Tavola",
					res.Name, res.ID, res.Date, res.Time))
			return agent.ReplyOutcome(fmt.Sprintf("Reservation %s is cancelled.", res.ID)), nil
		},
	}
}

func (r *Restaurant) previewOrder() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "preview_order",
			Description: "Price an order, suggest add-ons, and stage it for confirmation.",
			Parameters: []types.Param{
				{Name: "items", Type: types.ParamStrings, Required: true, MinLen: 1},
				{Name: "email", Type: types.ParamString, Format: types.FormatEmail},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			items := stringsArg(args, "items")
			total, unknown := r.deps.Restaurant.PriceOrder(items)
			if len(unknown) > 0 {
				return agent.ReplyOutcome(fmt.Sprintf(
					"I'm sorry, we don't have %s on the menu. Would you like to pick something else?",
					strings.Join(unknown, " or "))), nil
			}

			draft := orderDraft{Items: items, Email: stringArg(args, "email"), Total: total}
			summary := fmt.Sprintf("%s, for a total of %d rupees", strings.Join(items, ", "), total)

			_, replaced, err := confirm.Stage(sess, types.KindOrder, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("That's %s. Shall I place the order?", summary)
			if upsells := r.deps.Restaurant.Upsells(items); len(upsells) > 0 {
				msg = fmt.Sprintf("That's %s. Would you like to add %s? Or shall I place the order as it is?",
					summary, strings.Join(upsells, " or "))
			}
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (r *Restaurant) confirmOrder() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_order",
			Description: "Place the staged order after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindOrder)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft orderDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged order could not be decoded").WithCause(err)
			}

			o := r.deps.Restaurant.CreateOrder(draft.Items, draft.Total)
			sendConfirmation(ctx, r.deps, draft.Email, "Your La Tavola Order "+o.ID,
				fmt.Sprintf("Thank you for your order.\n\nID: %s\nItems: %s\nTotal: Rs. %d\n\nLa Tavola",
					o.ID, strings.Join(o.Items, ", "), o.Total))

			return agent.ReplyOutcome(fmt.Sprintf(
				"Your order is placed, reference %s, total %d rupees. It'll be ready shortly.",
				o.ID, o.Total)), nil
		},
	}
}

func (r *Restaurant) cancelPendingOrder() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_order",
			Description: "Discard the staged order instead of confirming it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindOrder); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("No problem, I've discarded that order. Anything else?"), nil
		},
	}
}
