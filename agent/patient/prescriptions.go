package patient

import (
	"context"
	"fmt"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

// requestRefill acknowledges the request; review and pharmacy hand-off happen
// downstream of this system.
func requestRefill() workflowx.Handler {
	return func(_ context.Context, turn *workflowx.Turn) (contractx.FunctionResult, error) {
		req, err := workflowx.DecodeArgs[contractx.RequestRefillRequest](turn.Args)
		if err != nil {
			return contractx.FunctionResult{}, err
		}

		return contractx.FunctionResult{
			Message: fmt.Sprintf("I've submitted a refill request for %s to %s. "+
				"Your doctor will review it within 24-48 hours. "+
				"The pharmacy will contact you when it's ready. "+
				"Is there anything else I can help you with?", req.Medication, req.Pharmacy),
		}, nil
	}
}
