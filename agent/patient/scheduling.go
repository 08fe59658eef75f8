package patient

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

const maxOfferedSlots = 3

// checkAvailability lists up to three open slots for a specialty. An unknown
// or fully booked specialty gets a waitlist offer, never an error. The date
// argument is accepted but does not filter results.
func checkAvailability(catalog contractx.AppointmentCatalog) workflowx.Handler {
	return func(ctx context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.CheckAvailabilityRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		specialty := strings.ToLower(strings.TrimSpace(req.Specialty))
		slots, err := catalog.Slots(ctx, specialty)
		if err != nil {
			return contractx.FunctionResult{}, fmt.Errorf("slot lookup: %w", err)
		}

		if len(slots) == 0 {
			return contractx.FunctionResult{
				Message: fmt.Sprintf("I don't have any %s slots available right now. "+
					"Would you like me to check another specialty or add you to a waitlist?", specialty),
			}, nil
		}

		if len(slots) > maxOfferedSlots {
			slots = slots[:maxOfferedSlots]
		}
		return contractx.FunctionResult{
			Message: fmt.Sprintf("For %s, I have the following available slots: %s. "+
				"Which one would work best for you?", specialty, strings.Join(slots, ", ")),
		}, nil
	}
}

// bookAppointment confirms the chosen slot and queues an SMS confirmation.
// The SMS goes to the caller's number from the session, falling back to the
// configured default when the call carries no number. The catalog is not
// mutated; it stays read-only at call time.
func bookAppointment(cfg Config) workflowx.Handler {
	return func(_ context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.BookAppointmentRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		to := turn.State.CallerNumber
		if to == "" {
			to = cfg.SMSFallbackNumber
		}

		return contractx.FunctionResult{
			Message: fmt.Sprintf("I've booked your appointment for %s. "+
				"A confirmation will be sent to your registered phone and email. "+
				"Is there anything else I can help you with today?", req.SlotID),
			SideEffects: []contractx.SideEffect{
				{
					Type: contractx.SideEffectSendSMS,
					Payload: map[string]any{
						"to":   to,
						"body": fmt.Sprintf("Your TeleHealth appointment is confirmed for %s.", req.SlotID),
					},
				},
			},
		}, nil
	}
}
