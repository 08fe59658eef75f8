// Package gateway is the front-door agent for TeleHealth Connect: it routes
// callers to a department, reports operating hours, and gives emergency
// guidance. It is a leaf agent with a single context and no state beyond the
// call session itself.
package gateway

import (
	"github.com/cloudwego/eino/schema"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

const AgentName = "telehealth-gateway"

const receptionInstruction = "You are the gateway agent for TeleHealth Connect, a HIPAA-compliant " +
	"telehealth service. Route callers to the appropriate department. For " +
	"life-threatening emergencies, always advise calling 911 first; the " +
	"emergency line is for urgent but non-life-threatening situations."

// The department argument is deliberately not enum-restricted in the schema:
// unrecognized values degrade to the triage destination instead of failing
// the turn.
const routeCallParameters = `{
	"type": "object",
	"properties": {
		"department": {
			"type": "string",
			"description": "Department to route to: triage, scheduling, prescriptions, billing, or emergency"
		}
	}
}`

const emptyParameters = `{"type": "object", "properties": {}}`

// Agent wraps a single-context workflow engine.
type Agent struct {
	*workflowx.Engine
}

func New(tables *directoryx.Tables, store statex.Store, opts ...workflowx.Option) (*Agent, error) {
	reception := workflowx.ContextSpec{
		ID:          contractx.ContextReception,
		Instruction: receptionInstruction,
		Functions: []workflowx.FunctionSpec{
			{
				Info: &schema.ToolInfo{
					Name: "route_call",
					Desc: "Route call to appropriate department",
					ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
						"department": {Type: schema.String, Desc: "Department to route to"},
					}),
				},
				Parameters: routeCallParameters,
				Handler:    routeCall(tables),
			},
			{
				Info: &schema.ToolInfo{
					Name:        "get_hours",
					Desc:        "Get current operating hours",
					ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
				},
				Parameters: emptyParameters,
				Handler:    getHours(tables),
			},
			{
				Info: &schema.ToolInfo{
					Name:        "emergency_guidance",
					Desc:        "Provide emergency guidance",
					ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
				},
				Parameters: emptyParameters,
				Handler:    emergencyGuidance(),
			},
		},
	}

	engine, err := workflowx.New(AgentName, contractx.ContextReception, []workflowx.ContextSpec{reception}, store, opts...)
	if err != nil {
		return nil, err
	}
	return &Agent{Engine: engine}, nil
}
