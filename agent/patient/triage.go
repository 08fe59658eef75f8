package patient

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

// assessSymptoms scans the description for urgent terms. A match ends the
// call with a terminal transfer to the emergency line; otherwise the symptoms
// are recorded and the call moves on to scheduling.
func assessSymptoms(urgent *directoryx.UrgentMatcher, tables *directoryx.Tables) workflowx.Handler {
	return func(_ context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.AssessSymptomsRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		symptoms := strings.ToLower(strings.TrimSpace(req.Symptoms))

		if term, matched := urgent.Match(symptoms); matched {
			return contractx.FunctionResult{
				Message: fmt.Sprintf("Based on your symptoms (%s), I need to connect you "+
					"with a nurse immediately. Please hold.", term),
				PostProcess: true,
				Transfer: &contractx.TransferAction{
					Destination:  tables.EmergencyDestination(),
					FinalMessage: "Goodbye!",
					Terminal:     true,
				},
			}, nil
		}

		return contractx.FunctionResult{
			Message: "Thank you for describing your symptoms. Based on what you've told me, " +
				"I can help you schedule an appointment with the appropriate specialist. " +
				"What type of doctor would you like to see?",
			GlobalDataPatch: map[string]any{statex.KeySymptoms: symptoms},
			ContextSwitch:   contractx.ContextScheduling,
		}, nil
	}
}

// escalateUrgent transfers unconditionally.
func escalateUrgent(tables *directoryx.Tables) workflowx.Handler {
	return func(_ context.Context, _ *workflowx.Turn) (contractx.FunctionResult, error) {
		return contractx.FunctionResult{
			Message:     "I'm connecting you with an on-call nurse immediately. Please hold.",
			PostProcess: true,
			Transfer: &contractx.TransferAction{
				Destination:  tables.EmergencyDestination(),
				FinalMessage: "Goodbye!",
				Terminal:     true,
			},
		}, nil
	}
}
