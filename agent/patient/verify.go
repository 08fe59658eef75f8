package patient

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

// verifyPatient checks the member id and date of birth against the directory.
// The failure message is deliberately ambiguous: it never reveals whether the
// member id or the DOB was wrong.
func verifyPatient(patients contractx.PatientDirectory) workflowx.Handler {
	return func(ctx context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.VerifyPatientRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		memberID := strings.ToUpper(strings.TrimSpace(req.MemberID))
		record, found, err := patients.Lookup(ctx, memberID)
		if err != nil {
			return contractx.FunctionResult{}, fmt.Errorf("patient lookup: %w", err)
		}

		if !found || record.DOB != strings.TrimSpace(req.DOB) {
			return contractx.FunctionResult{
				Message: "I couldn't verify your identity with that information. " +
					"Please check your member ID and date of birth and try again.",
			}, nil
		}

		return contractx.FunctionResult{
			Message: fmt.Sprintf("Thank you, %s. Your identity has been verified. How can I help you today?", record.Name),
			GlobalDataPatch: map[string]any{
				statex.KeyPatientVerified: true,
				statex.KeyPatientName:     record.Name,
				statex.KeyPatientTier:     record.Tier,
			},
			ContextSwitch: contractx.ContextTriage,
			// Resume recording now that the sensitive exchange is over.
			Recording: &contractx.RecordingControl{
				Action:    contractx.RecordingResume,
				ControlID: recordingControlID,
				Format:    "mp3",
				Stereo:    true,
			},
		}, nil
	}
}

// secureInput is a pure recording-pause signal; it never touches state, so
// repeating it is harmless.
func secureInput() workflowx.Handler {
	return func(_ context.Context, _ *workflowx.Turn) (contractx.FunctionResult, error) {
		return contractx.FunctionResult{
			Message: "Recording has been paused. You can now share your information securely.",
			Recording: &contractx.RecordingControl{
				Action:    contractx.RecordingPause,
				ControlID: recordingControlID,
			},
		}, nil
	}
}
