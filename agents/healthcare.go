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

// Healthcare handles doctor lookups and appointment booking for the demo
// hospital CityCare.
type Healthcare struct {
	deps Deps
}

// NewHealthcare creates a fresh healthcare bundle.
func NewHealthcare(deps Deps) *Healthcare {
	return &Healthcare{deps: deps}
}

func (h *Healthcare) Domain() types.Domain { return types.DomainHealthcare }
func (h *Healthcare) Name() string         { return "CityCare Hospital" }

func (h *Healthcare) Greeting() string {
	return "You've reached CityCare Hospital. How can I help you today?"
}

func (h *Healthcare) Instructions() string {
	return "You are a CityCare Hospital phone receptionist. Help callers find " +
		"the right doctor and book appointments. Never give medical advice; for " +
		"symptoms, suggest the matching specialty and offer to book. Read every " +
		"appointment preview back and wait for an explicit yes before confirming."
}

type appointmentDraft struct {
	Patient string `json:"patient"`
	Email   string `json:"email"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Healthcare) Tools() []agent.Tool {
	return append([]agent.Tool{
		h.listDoctors(),
		h.doctorDetails(),
		h.hospitalInfo(),
		h.previewAppointment(),
		h.confirmAppointment(),
		h.appointmentStatus(),
		h.cancelPendingAppointment(),
		h.cancelAppointment(),
	}, transferTools(types.DomainHealthcare)...)
}

func (h *Healthcare) listDoctors() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "list_doctors",
			Description: "List doctors, optionally filtered by specialty.",
			Parameters: []types.Param{
				{Name: "specialization", Type: types.ParamString, Description: "Specialty to filter by, e.g. cardiologist"},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			spec := stringArg(args, "specialization")
			var doctors = h.deps.Healthcare.Doctors()
			if spec != "" {
				doctors = h.deps.Healthcare.DoctorsBySpecialization(spec)
			}
			if len(doctors) == 0 {
				return agent.ReplyOutcome(fmt.Sprintf(
					"We don't have a %s on the roster right now. Would another specialty help?", spec)), nil
			}

			opts := make([]session.LookupOption, len(doctors))
			lines := make([]string, len(doctors))
			for i, d := range doctors {
				opts[i] = session.LookupOption{Ref: d.Name, Label: d.Name + ", " + d.Specialization}
				lines[i] = fmt.Sprintf("Option %d: %s, %s, available %s.", i+1, d.Name, d.Specialization, d.Timings)
			}
			sess.SetLastResults(opts)

			return agent.ReplyOutcome(strings.Join(lines, " ") +
				" Would you like to book with any of them?"), nil
		},
	}
}

func (h *Healthcare) doctorDetails() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "doctor_details",
			Description: "Read out one doctor's specialty and timings.",
			Parameters: []types.Param{
				{Name: "name", Type: types.ParamString, Required: true, MinLen: 2},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			d, ok := h.deps.Healthcare.DoctorByName(stringArg(args, "name"))
			if !ok {
				return agent.Outcome{}, types.NewError(types.ErrNotFound,
					fmt.Sprintf("no doctor named %q on the roster", stringArg(args, "name")))
			}
			return agent.ReplyOutcome(fmt.Sprintf("%s is our %s, available %s.",
				d.Name, strings.ToLower(d.Specialization), d.Timings)), nil
		},
	}
}

func (h *Healthcare) hospitalInfo() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_hospital_info",
			Description: "Read out the hospital's address, contact details and hours.",
		},
		Handler: func(_ context.Context, _ *session.Context, _ map[string]any) (agent.Outcome, error) {
			info := h.deps.Healthcare.Info()
			return agent.ReplyOutcome(fmt.Sprintf(
				"%s is at %s. You can call %s or write to %s. Our hours are %s.",
				info.Name, info.Address, info.Phone, info.Email, info.Hours)), nil
		},
	}
}

func (h *Healthcare) appointmentStatus() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "get_appointment_status",
			Description: "Look up a booked appointment by its id.",
			Parameters: []types.Param{
				{Name: "appointment_id", Type: types.ParamString, Required: true, MinLen: 4, Description: "Appointment id, e.g. APT001"},
			},
		},
		Handler: func(_ context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			a, err := h.deps.Healthcare.AppointmentByID(stringArg(args, "appointment_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome(fmt.Sprintf(
				"Appointment %s for %s with %s on %s at %s is %s.",
				a.ID, a.Patient, a.Doctor, a.Date, a.Time, a.Status)), nil
		},
	}
}

func (h *Healthcare) previewAppointment() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name: "preview_appointment",
			Description: "Stage an appointment for confirmation. Identify the doctor " +
				"by name, or by option number from the last listing.",
			Parameters: []types.Param{
				{Name: "patient", Type: types.ParamString, Required: true, MinLen: 2},
				{Name: "email", Type: types.ParamString, Required: true, Format: types.FormatEmail},
				{Name: "doctor", Type: types.ParamString, Description: "Doctor's name"},
				{Name: "option", Type: types.ParamInt, Description: "1-based option number from the last listing"},
				{Name: "date", Type: types.ParamString, Required: true, Format: types.FormatFutureDate},
				{Name: "time", Type: types.ParamString, Required: true, Format: types.FormatClock},
				{Name: "reason", Type: types.ParamString, Description: "Short reason for the visit"},
			},
		},
		Handler: func(_ context.Context, sess *session.Context, args map[string]any) (agent.Outcome, error) {
			doctorName := stringArg(args, "doctor")
			if doctorName == "" {
				opt, ok := sess.OptionByNumber(intArg(args, "option"))
				if !ok {
					return agent.ReplyOutcome(
						"Which doctor would that be? You can give me a name or pick an option from the list."), nil
				}
				doctorName = opt.Ref
			}

			d, ok := h.deps.Healthcare.DoctorByName(doctorName)
			if !ok {
				return agent.Outcome{}, types.NewError(types.ErrNotFound,
					fmt.Sprintf("no doctor named %q on the roster", doctorName)).WithField("doctor")
			}

			draft := appointmentDraft{
				Patient: stringArg(args, "patient"),
				Email:   stringArg(args, "email"),
				Doctor:  d.Name,
				Date:    stringArg(args, "date"),
				Time:    stringArg(args, "time"),
				Reason:  stringArg(args, "reason"),
			}
			summary := fmt.Sprintf("an appointment with %s on %s at %s for %s",
				d.Name, draft.Date, draft.Time, draft.Patient)

			_, replaced, err := confirm.Stage(sess, types.KindAppointment, draft, summary)
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

func (h *Healthcare) confirmAppointment() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "confirm_appointment",
			Description: "Book the staged appointment after the caller says yes.",
		},
		Handler: func(ctx context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			p, err := confirm.Take(sess, types.KindAppointment)
			if err != nil {
				return agent.Outcome{}, err
			}
			var draft appointmentDraft
			if err := p.DecodePayload(&draft); err != nil {
				return agent.Outcome{}, types.NewError(types.ErrInternal,
					"staged appointment could not be decoded").WithCause(err)
			}

			apt, err := h.deps.Healthcare.CreateAppointment(draft.Patient, draft.Email,
				draft.Doctor, draft.Date, draft.Time, draft.Reason)
			if err != nil {
				return agent.Outcome{}, err
			}

			sendConfirmation(ctx, h.deps, draft.Email, "Your CityCare Appointment "+apt.ID,
				fmt.Sprintf("Dear %s,\n\nYour appointment is confirmed.\n\nID: %s\nDoctor: %s\nWhen: %s at %s\n\nCityCare Hospital",
					draft.Patient, apt.ID, apt.Doctor, apt.Date, apt.Time))

			return agent.ReplyOutcome(fmt.Sprintf(
				"You're booked with %s on %s at %s. Your appointment ID is %s and a confirmation email is on its way.",
				apt.Doctor, apt.Date, apt.Time, apt.ID)), nil
		},
	}
}

func (h *Healthcare) cancelPendingAppointment() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_pending_appointment",
			Description: "Discard the staged appointment instead of confirming it.",
		},
		Handler: func(_ context.Context, sess *session.Context, _ map[string]any) (agent.Outcome, error) {
			if _, err := confirm.Cancel(sess, types.KindAppointment); err != nil {
				return agent.Outcome{}, err
			}
			return agent.ReplyOutcome("Of course, I've discarded that appointment. Anything else?"), nil
		},
	}
}

func (h *Healthcare) cancelAppointment() agent.Tool {
	return agent.Tool{
		Schema: types.ToolSchema{
			Name:        "cancel_appointment",
			Description: "Cancel an existing appointment by its ID.",
			Parameters: []types.Param{
				{Name: "appointment_id", Type: types.ParamString, Required: true, MinLen: 4},
			},
		},
		Handler: func(ctx context.Context, _ *session.Context, args map[string]any) (agent.Outcome, error) {
			apt, err := h.deps.Healthcare.CancelAppointment(stringArg(args, "appointment_id"))
			if err != nil {
				return agent.Outcome{}, err
			}
			sendConfirmation(ctx, h.deps, apt.Email, "Your CityCare Appointment "+apt.ID+" Is Cancelled",
				fmt.Sprintf("Dear %s,\n\nYour appointment %s with %s on %s has been cancelled.\n\nCityCare Hospital",
					apt.Patient, apt.ID, apt.Doctor, apt.Date))
			return agent.ReplyOutcome(fmt.Sprintf(
				"Appointment %s with %s is cancelled.", apt.ID, apt.Doctor)), nil
		},
	}
}
