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

// Airline handles flight search, status, booking and loyalty queries for
// the demo carrier SkyBridge Air.
type Airline struct {
	deps Deps
}

// NewAirline creates a fresh airline bundle.
func NewAirline(deps Deps) *Airline {
	return &Airline{deps: deps}
}

func (a *Airline) Domain() types.Domain { return types.DomainAirline }
func (a *Airline) Name() string         { return "SkyBridge Air" }

func (a *Airline) Greeting() string {
	return "You're through to SkyBridge Air. How can I help with your travel?"
}

func (a *Airline) Instructions() string {
	return "You are a SkyBridge Air phone agent. Help with flight search, " +
		"status, bookings, baggage rules and loyalty accounts. Always read a " +
		"booking preview back to the caller and wait for an explicit yes " +
		"before confirming. Keep replies short and speakable; never read out " +
		"raw JSON or internal identifiers the caller didn't ask for."
}

type bookingDraft struct {
	FlightNumber string `json:"flight_number"`
	Passenger    string `json:"passenger"`
	Email        string `json:"email"`
	Date         string `json:"date"`
	Class        string `json:"class"`
	Fare         string `json:"fare"`
}

func (a *Airline) Tools() []agent.Tool {
	return append([]agent.Tool{
		a.searchFlights(),
		a.flightStatus(),
		a.baggagePolicy(),
		a.cancellationPolicy(),
		a.loyaltyStatus(),
		a.airlineInfo(),
		a.previewBooking(),
		a.confirmBooking(),
		a.cancelPendingBooking(),
		a.lookupBooking(),
		a.cancelBooking(),
	}, transferTools(types.DomainAirline)...)
}

func (a *Airline) searchFlights() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "search_flights",
			Description: "Search today's schedule by origin and destination airport code.",
			Parameters: []types.Param{
				{Name: "origin", Type: types.ParamString, Required: true, MinLen: 3, Description: "Origin airport code, e.g. KHI"},
				{Name: "destination", Type: types.ParamString, Required: true, MinLen: 3, Description: "Destination airport code, e.g. DXB"},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			origin, dest := stringArg(args, "origin"), stringArg(args, "destination")
			flights := a.deps.Airline.SearchFlights(origin, dest)
			if len(flights) == 0 {
				return agent.ReplyOutcome(fmt.Sprintf(
					"I couldn't find any flights from %s to %s today.",
					strings.ToUpper(origin), strings.ToUpper(dest))), nil
			}

			opts := make([]session.LookupOption, len(flights))
			lines := make([]string, len(flights))
			for i, f := range flights {
				opts[i] = session.LookupOption{
					Ref:   f.Number,
					Label: fmt.Sprintf("%s departing %s, %s", f.Number, f.Departure, f.Fare),
				}
				lines[i] = fmt.Sprintf("Option %d: flight %s departing %s, arriving %s, fare %s.",
					i+1, f.Number, f.Departure, f.Arrival, f.Fare)
			}
			sess.SetLastResults(opts)

			return agent.ReplyOutcome(fmt.Sprintf(
				"I found %d flights from %s to %s. %s Which option would you like?",
				len(flights), strings.ToUpper(origin), strings.ToUpper(dest),
				strings.Join(lines, " "))), nil
		},
	}
}

func (a *Airline) flightStatus() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "flight_status",
			Description: "Report the operational status of a flight by number.",
			Parameters: []types.Param{
				{Name: "flight_number", Type: types.ParamString, Required: true, MinLen: 3},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			st, err := a.deps.Airline.Status(stringArg(args, "flight_number"))
			if err != nil {
				return agent.Outcome{}, err
			}
			msg := fmt.Sprintf("Flight %s from %s to %s is %s, gate %s, terminal %s.",
				st.Flight.Number, st.Flight.Origin, st.Flight.Destination,
				strings.ToLower(st.Status), st.Flight.Gate, st.Flight.Terminal)
			if st.DelayMinutes > 0 {
				msg += fmt.Sprintf(" The delay is about %d minutes.", st.DelayMinutes)
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (a *Airline) baggagePolicy() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "baggage_policy",
			Description: "Read out the baggage allowance for a travel class.",
			Parameters: []types.Param{
				{Name: "class", Type: types.ParamString, Required: true,
					Enum: []string{"economy", "premium economy", "business", "first"}},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			policy, err := a.deps.Airline.BaggagePolicy(stringArg(args, "class"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf("For %s class the allowance is %s.",
				strings.ToLower(stringArg(args, "class")), policy)), nil
		},
	}
}

func (a *Airline) cancellationPolicy() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancellation_policy",
			Description: "Read out the fare cancellation and rebooking terms.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			return agent.ReplyOutcome(a.deps.Airline.CancellationPolicy()), nil
		},
	}
}

func (a *Airline) loyaltyStatus() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "loyalty_status",
			Description: "Look up a SkyMiles member's tier, balance and benefits.",
			Parameters: []types.Param{
				{Name: "member_id", Type: types.ParamString, Required: true, MinLen: 5},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			m, err := a.deps.Airline.Loyalty(stringArg(args, "member_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"You're a %s member with %d miles, valid until %s. Your benefits include %s.",
				m.Tier, m.MilesBalance, m.ValidUntil, strings.Join(m.Benefits, ", "))), nil
		},
	}
}

func (a *Airline) airlineInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_airline_info",
			Description: "Read out the airline's contact details and office hours.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			info := a.deps.Airline.Info()
			return agent.ReplyOutcome(fmt.Sprintf(
				"%s is based at %s. You can reach us on %s or %s, and our website is %s. Support is available %s.",
				info.Name, info.Address, info.Phone, info.Email, info.Website,
				strings.ToLower(info.OfficeHours))), nil
		},
	}
}

func (a *Airline) previewBooking() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name: "preview_booking",
			Description: "Stage a flight booking for confirmation. Identify the " +
				"flight by number, or by option number from the last search.",
			Parameters: []types.Param{
				{Name: "flight_number", Type: types.ParamString, Description: "Flight number, e.g. SB101"},
				{Name: "option", Type: types.ParamInt, Description: "1-based option number from the last search"},
				{Name: "passenger", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "date", Type: types.ParamString, Required: true, Format: types.FormatFutureDate},
				{Name: "class", Type: types.ParamString, Required: true,
					Enum: []string{"economy", "premium economy", "business", "first"}},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			number := stringArg(args, "flight_number")
			if number == "" {
				opt, ok := sess.OptionByNumber(intArg(args, "option"))
				if !ok {
					return agent.ReplyOutcome(
						"I'm not sure which flight you mean. Could you give me the flight number, " +
							"or pick an option from the search results?"), nil
				}
				number = opt.Ref
			}

			f, ok := a.deps.Airline.FlightByNumber(number)
			if !ok {
				return agent.Outcome{}, types.NewError(types.ErrNotFound,
					fmt.Sprintf("no flight %s in today's schedule", strings.ToUpper(number)))
			}

			draft := bookingDraft{
				FlightNumber: f.Number,
				Passenger:    stringArg(args, "passenger"),
				Email:        stringArg(args, "email"),
				Date:         stringArg(args, "date"),
				Class:        stringArg(args, "class"),
				Fare:         f.Fare,
			}
			summary := fmt.Sprintf("flight %s from %s to %s on %s, %s class, for %s, fare %s",
				f.Number, f.Origin, f.Destination, draft.Date, draft.Class, draft.Passenger, f.Fare)

			_, replaced, err := confirm.Stage(sess, types.KindBooking, draft, summary)
			if err != nil {
				return agent.Outcome{}, err
			}

			msg := fmt.Sprintf("Here's your booking: %s. Shall I confirm it?", summary)
			if replaced {
				msg = "I've replaced your earlier request. " + msg
			}
			return agent.ReplyOutcome(msg), nil
		},
	}
}

func (a *Airline) confirmBooking() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_booking",
			Description: "Execute the staged flight booking after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindBooking)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft bookingDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged booking could not be decoded").WithCause(err)
			}

			b, err := a.deps.Airline.CreateBooking(draft.FlightNumber, draft.Passenger,
				draft.Email, draft.Date, draft.Class)
			if err != nil {
				return agent.Outcome{}, err
			}

			sendConfirmation(ctx, a.deps, draft.Email, "Your SkyBridge Air Booking "+b.PNR,
				fmt.Sprintf("Dear %s,\n\nYour booking is confirmed.\n\nPNR: %s\nFlight: %s on %s\nClass: %s\nFare: %s\n\nSafe travels,\nSkyBridge Air",
					draft.Passenger, b.PNR, b.FlightNumber, b.Date, b.Class, draft.Fare))

			return agent.ReplyOutcome(fmt.Sprintf(
				"All done. Your booking reference is %s, and a confirmation email is on its way to %s.",
				b.PNR, draft.Email)), nil
		},
	}
}

func (a *Airline) cancelPendingBooking() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_booking",
			Description: "Discard the staged flight booking instead of confirming it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindBooking); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("No problem, I've discarded that booking. Anything else?"), nil
		},
	}
}

func (a *Airline) lookupBooking() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "booking_lookup",
			Description: "Look an existing booking up by PNR.",
			Parameters: []types.Param{
				{Name: "pnr", Type: types.ParamString, Required: true, MinLen: 6},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			b, err := a.deps.Airline.BookingByPNR(stringArg(args, "pnr"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"Booking %s: flight %s on %s, %s class, under %s. Its status is %s.",
				b.PNR, b.FlightNumber, b.Date, b.Class, b.Passenger, b.Status)), nil
		},
	}
}

func (a *Airline) cancelBooking() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_booking",
			Description: "Cancel an existing confirmed booking by PNR.",
			Parameters: []types.Param{
				{Name: "pnr", Type: types.ParamString, Required: true, MinLen: 6},
			},
		},
		Handler: func(ctx context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			b, err := a.deps.Airline.CancelBooking(stringArg(args, "pnr"))
			if err != nil {
				return agent.Outcome{}, err
			}
			sendConfirmation(ctx, a.deps, b.Email, "Your SkyBridge Air Booking "+b.PNR+" Is Cancelled",
				fmt.Sprintf("Dear %s,\n\nYour booking %s for flight %s has been cancelled.\n\nSkyBridge Air",
					b.Passenger, b.PNR, b.FlightNumber))
			return agent.ReplyOutcome(fmt.Sprintf(
				"Booking %s is cancelled. %s", b.PNR, a.deps.Airline.CancellationPolicy())), nil
		},
	}
}
