package gateway

import (
	"context"
	"fmt"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

// routeCall resolves the department and ends the gateway's involvement with a
// terminal transfer. Unknown departments fall back to triage.
func routeCall(tables *directoryx.Tables) workflowx.Handler {
	return func(_ context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.RouteCallRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		dept, dest := tables.ResolveDepartment(req.Department)
		return contractx.FunctionResult{
			Message:     fmt.Sprintf("I'm transferring you to our %s department now.", dept),
			PostProcess: true,
			Transfer: &contractx.TransferAction{
				Destination:  dest,
				FinalMessage: "Goodbye!",
				Terminal:     true,
			},
		}, nil
	}
}

// getHours reports whether the service is open at the engine clock's current
// hour, rendering both bounds through the same 12-hour formatter.
func getHours(tables *directoryx.Tables) workflowx.Handler {
	return func(_ context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		class, span := tables.HoursFor(turn.Now)

		dayType := "weekdays"
		if class == directoryx.Weekend {
			dayType = "weekends"
		}

		open := span.Open <= turn.Now.Hour() && turn.Now.Hour() < span.Close
		hoursText := fmt.Sprintf("Our %s hours are %s to %s.", dayType, formatHour12(span.Open), formatHour12(span.Close))

		if open {
			return contractx.FunctionResult{
				Message: fmt.Sprintf("We're currently open. %s How can I help you today?", hoursText),
			}, nil
		}
		return contractx.FunctionResult{
			Message: fmt.Sprintf("We're currently closed. %s For emergencies, I can connect you to our after-hours nurse line.", hoursText),
		}, nil
	}
}

// emergencyGuidance only advises; the follow-up route_call to emergency
// performs any transfer.
func emergencyGuidance() workflowx.Handler {
	return func(_ context.Context, _ *workflowx.Turn) (contractx.FunctionResult, error) {
		return contractx.FunctionResult{
			Message: "If this is a life-threatening emergency, please hang up and call 911 immediately. " +
				"For urgent but non-life-threatening situations, I can connect you to our " +
				"on-call nurse. Would you like me to transfer you?",
		}, nil
	}
}

func formatHour12(hour24 int) string {
	switch {
	case hour24 == 0 || hour24 == 24:
		return "12AM"
	case hour24 == 12:
		return "12PM"
	case hour24 > 12:
		return fmt.Sprintf("%dPM", hour24-12)
	default:
		return fmt.Sprintf("%dAM", hour24)
	}
}
