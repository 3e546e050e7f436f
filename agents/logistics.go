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

// Logistics handles coverage checks, quotes, pickups and tracking for the
// demo courier SwiftBridge.
type Logistics struct {
	deps Deps
}

// NewLogistics creates a fresh logistics bundle.
func NewLogistics(deps Deps) *Logistics {
	return &Logistics{deps: deps}
}

func (l *Logistics) Domain() types.Domain { return types.DomainLogistics }
func (l *Logistics) Name() string         { return "SwiftBridge Courier" }

func (l *Logistics) Greeting() string {
	return "SwiftBridge Courier, hello. Sending a parcel or tracking one?"
}

func (l *Logistics) Instructions() string {
	return "You are a SwiftBridge Courier phone agent. Check coverage, quote " +
		"prices, schedule pickups and track shipments. Quote a price before " +
		"staging any pickup. Read every pickup preview back and wait for an " +
		"explicit yes before scheduling."
}

type pickupDraft struct {
	Sender   string  `json:"sender"`
	Email    string  `json:"email"`
	Address  string  `json:"address"`
	AreaCode string  `json:"area_code"`
	WeightKG float64 `json:"weight_kg"`
	Pieces   int     `json:"pieces"`
	Service  string  `json:"service"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
}

func (l *Logistics) Tools() []agent.Tool {
	return append([]agent.Tool{
		l.checkCoverage(),
		l.quoteDomestic(),
		l.quoteInternational(),
		l.trackShipment(),
		l.previewPickup(),
		l.confirmPickup(),
		l.pickupStatus(),
		l.recordShipmentEvent(),
		l.cancelPendingPickup(),
		l.cancelPickup(),
		l.pickupPolicy(),
		l.courierInfo(),
	}, transferTools(types.DomainLogistics)...)
}

func (l *Logistics) checkCoverage() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "check_coverage",
			Description: "Check whether we serve a domestic city code or a country.",
			Parameters: []types.Param{
				{Name: "location", Type: types.ParamString, Required: true, MinLen: 2},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			loc := stringArg(args, "location")
			if area, ok := l.deps.Logistics.DomesticArea(loc); ok {
				msg := fmt.Sprintf("Yes, we cover %s, zone %s.", strings.ToUpper(loc), area.Zone)
				if area.SameDay {
					msg += " Same-day delivery is available there."
				}
				return agent.ReplyOutcome(msg), nil
			}
			if area, ok := l.deps.Logistics.InternationalArea(loc); ok {
				return agent.ReplyOutcome(fmt.Sprintf(
					"Yes, we ship to %s. Transit is about %d days and customs clearance is required.",
					strings.ToUpper(loc), area.TransitDays)), nil
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"I'm sorry, we don't currently serve %s.", strings.ToUpper(loc))), nil
		},
	}
}

func (l *Logistics) quoteDomestic() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "quote_domestic",
			Description: "Price a domestic shipment.",
			Parameters: []types.Param{
				{Name: "origin", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "destination", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "weight_kg", Type: types.ParamFloat, Required: true},
				{Name: "service_level", Type: types.ParamString, Enum: []string{"standard", "express", "overnight"}},
				{Name: "cod_amount", Type: types.ParamFloat, Description: "Cash to collect on delivery, if any"},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			q, err := l.deps.Logistics.QuoteDomestic(
				stringArg(args, "origin"), stringArg(args, "destination"),
				floatArg(args, "weight_kg"), stringArg(args, "service_level"),
				floatArg(args, "cod_amount"))
			if err != nil {
				return agent.Outcome{}, err
			}
			msg := fmt.Sprintf("That would be %d rupees.", q.Total)
			if q.CODFee > 0 {
				msg += fmt.Sprintf(" That includes a cash-on-delivery fee of %d rupees.", q.CODFee)
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (l *Logistics) quoteInternational() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "quote_international",
			Description: "Price an international shipment.",
			Parameters: []types.Param{
				{Name: "country", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "weight_kg", Type: types.ParamFloat, Required: true},
				{Name: "service_level", Type: types.ParamString, Enum: []string{"economy", "express"}},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			q, err := l.deps.Logistics.QuoteInternational(
				stringArg(args, "country"), floatArg(args, "weight_kg"),
				stringArg(args, "service_level"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"Shipping to %s would be %d rupees.", strings.ToUpper(stringArg(args, "country")), q.Total)), nil
		},
	}
}

func (l *Logistics) trackShipment() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "track_shipment",
			Description: "Track a shipment by its tracking number.",
			Parameters: []types.Param{
				{Name: "tracking_number", Type: types.ParamString, Required: true, MinLen: 6},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			sh, err := l.deps.Logistics.TrackShipment(stringArg(args, "tracking_number"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"Shipment %s from %s to %s is %s, last seen at %s. Estimated delivery is %s.",
				sh.AWB, sh.Origin, sh.Destination, strings.ToLower(sh.Status),
				sh.LastLocation, sh.EstimatedDelivery)), nil
		},
	}
}

func (l *Logistics) previewPickup() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "preview_pickup",
			Description: "Stage a parcel pickup for confirmation.",
			Parameters: []types.Param{
				{Name: "sender", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "address", Type: types.ParamString, Required: true, MinLen: 5},
				{Name: "area_code", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "weight_kg", Type: types.ParamFloat, Required: true},
				{Name: "pieces", Type: types.ParamInt, Required: true},
				{Name: "service", Type: types.ParamString, Enum: []string{"domestic_standard", "domestic_express", "international"}},
				{Name: "date", Type: types.ParamString, Required: true, Format: types.FormatFutureDate},
				{Name: "time", Type: types.ParamString, Required: true, Format: types.FormatClock},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			area := stringArg(args, "area_code")
			if _, ok := l.deps.Logistics.DomesticArea(area); !ok {
				return agent.Outcome{}, types.NewError(types.ErrNotFound,
					fmt.Sprintf("no pickup coverage in %s", strings.ToUpper(area))).WithField("area_code")
			}

			service := stringArg(args, "service")
			if service == "" {
				service = "domestic_standard"
			}
			draft := pickupDraft{
				Sender:   stringArg(args, "sender"),
				Email:    stringArg(args, "email"),
				Address:  stringArg(args, "address"),
				AreaCode: strings.ToUpper(area),
				WeightKG: floatArg(args, "weight_kg"),
				Pieces:   intArg(args, "pieces"),
				Service:  service,
				Date:     stringArg(args, "date"),
				Time:     stringArg(args, "time"),
			}
			summary := fmt.Sprintf("a pickup of %d piece(s), %.1f kilos, from %s in %s on %s at %s",
				draft.Pieces, draft.WeightKG, draft.Address, draft.AreaCode, draft.Date, draft.Time)

			_, replaced, err := confirm.Stage(sess, types.KindPickup, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("I have %s. Shall I schedule it?", summary)
			if _, ok := l.deps.Logistics.AgentForArea(draft.AreaCode); !ok {
				msg = fmt.Sprintf("I have %s. No driver is free in %s right now, so we'd assign one closer to the time. Shall I schedule it?",
					summary, draft.AreaCode)
			}
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (l *Logistics) confirmPickup() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_pickup",
			Description: "Schedule the staged pickup after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindPickup)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft pickupDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged pickup could not be decoded").WithCause(err)
			}

			pk, err := l.deps.Logistics.SchedulePickup(draft.Sender, draft.Email,
				draft.Address, draft.AreaCode, draft.WeightKG, draft.Pieces,
				draft.Service, draft.Date, draft.Time)
			if err != nil {
				return agent.Outcome{}, err
			}

			sendConfirmation(ctx, l.deps, draft.Email, "Your SwiftBridge Pickup "+pk.ID,
				fmt.Sprintf("Dear %s,\n\nYour pickup is scheduled.\n\nBooking: %s\nWhen: %s at %s\nAddress: %s\n\nSwiftBridge Courier",
					draft.Sender, pk.ID, pk.Date, pk.Time, pk.Address))

			msg := fmt.Sprintf("Your pickup is scheduled for %s at %s, booking reference %s.",
				pk.Date, pk.Time, pk.ID)
			if pk.AgentID != "" {
				msg += " A driver has been assigned."
			} else {
				msg += " We'll assign a driver closer to the time."
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (l *Logistics) pickupStatus() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "view_pickup_status",
			Description: "Look up a scheduled pickup by its booking reference.",
			Parameters: []types.Param{
				{Name: "booking_id", Type: types.ParamString, Required: true, MinLen: 4},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			pk, err := l.deps.Logistics.PickupByID(stringArg(args, "booking_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			msg := fmt.Sprintf("Pickup %s from %s in %s on %s at %s is %s.",
				pk.ID, pk.Address, pk.AreaCode, pk.Date, pk.Time, pk.Status)
			if a, ok := l.deps.Logistics.AgentByID(pk.AgentID); ok {
				msg += fmt.Sprintf(" Your driver is %s.", a.Name)
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (l *Logistics) recordShipmentEvent() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "record_shipment_event",
			Description: "Record a scan on a shipment, updating its status and location.",
			Parameters: []types.Param{
				{Name: "tracking_number", Type: types.ParamString, Required: true, MinLen: 6},
				{Name: "status", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "location", Type: types.ParamString, Description: "Where the scan happened"},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			sh, err := l.deps.Logistics.RecordShipmentEvent(
				stringArg(args, "tracking_number"), stringArg(args, "status"),
				stringArg(args, "location"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"Noted. Shipment %s is now %s, last seen at %s.",
				sh.AWB, strings.ToLower(sh.Status), sh.LastLocation)), nil
		},
	}
}

func (l *Logistics) cancelPendingPickup() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_pickup",
			Description: "Discard the staged pickup instead of scheduling it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindPickup); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("No problem, I've discarded that pickup. Anything else?"), nil
		},
	}
}

func (l *Logistics) cancelPickup() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pickup",
			Description: "Cancel a scheduled pickup by its booking reference.",
			Parameters: []types.Param{
				{Name: "booking_id", Type: types.ParamString, Required: true, MinLen: 4},
			},
		},
		Handler: func(ctx context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			pk, err := l.deps.Logistics.CancelPickup(stringArg(args, "booking_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			sendConfirmation(ctx, l.deps, pk.Email, "Your SwiftBridge Pickup "+pk.ID+" Is Cancelled",
				fmt.Sprintf("Dear %s,\n\nYour pickup %s for %s at %s has been cancelled.\n\nSwiftBridge Courier",
					pk.Sender, pk.ID, pk.Date, pk.Time))
			return agent.ReplyOutcome(fmt.Sprintf("Pickup %s is cancelled. %s",
				pk.ID, l.deps.Logistics.PickupCancellationPolicy())), nil
		},
	}
}

func (l *Logistics) courierInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_courier_info",
			Description: "Read out the courier company's contact details and pickup hours.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			info := l.deps.Logistics.Info()
			return agent.ReplyOutcome(fmt.Sprintf(
				"%s operates from %s. You can reach us on %s or %s, and our website is %s. Pickup hours are %s.",
				info.Name, info.Address, info.Phone, info.Email, info.Website, info.PickupHours)), nil
		},
	}
}

func (l *Logistics) pickupPolicy() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "pickup_policy",
			Description: "Read out the pickup cancellation terms.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.ReplyOutcome(l.deps.Logistics.PickupCancellationPolicy()), nil
		},
	}
}
