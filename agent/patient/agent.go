// Package patient is the services agent behind the gateway: a four-context
// workflow that verifies the caller's identity, triages symptoms, and then
// handles scheduling or prescription refills. Identity verification gates
// everything past the first context, both through the context graph and
// through the engine's verified guard.
package patient

import (
	"errors"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

const AgentName = "telehealth-patient"

// recordingControlID names the call recording the runtime starts at call
// setup; secure_input pauses it, successful verification resumes it.
const recordingControlID = "main"

const (
	verificationInstruction = "First, verify the patient's identity using their date of birth " +
		"and member ID. Pause recording before collecting this information."
	triageInstruction = "Assess the patient's symptoms. If urgent, escalate immediately. " +
		"Otherwise, help schedule an appropriate appointment."
	schedulingInstruction = "Help the patient find and book an appointment with the " +
		"appropriate specialist."
	prescriptionsInstruction = "Handle prescription refill requests. Verify the medication " +
		"and pharmacy information."
)

const (
	verifyPatientParameters = `{
		"type": "object",
		"properties": {
			"dob": {"type": "string", "description": "Patient date of birth (YYYY-MM-DD)"},
			"member_id": {"type": "string", "description": "Patient member ID"}
		},
		"required": ["dob", "member_id"]
	}`

	assessSymptomsParameters = `{
		"type": "object",
		"properties": {
			"symptoms": {"type": "string", "description": "Description of symptoms"}
		},
		"required": ["symptoms"]
	}`

	checkAvailabilityParameters = `{
		"type": "object",
		"properties": {
			"specialty": {"type": "string", "description": "Medical specialty"},
			"date": {"type": "string", "description": "Preferred date (YYYY-MM-DD)"}
		},
		"required": ["specialty"]
	}`

	bookAppointmentParameters = `{
		"type": "object",
		"properties": {
			"slot_id": {"type": "string", "description": "Selected appointment slot"}
		},
		"required": ["slot_id"]
	}`

	requestRefillParameters = `{
		"type": "object",
		"properties": {
			"medication": {"type": "string", "description": "Name of medication"},
			"pharmacy": {"type": "string", "description": "Preferred pharmacy name"}
		},
		"required": ["medication", "pharmacy"]
	}`

	emptyParameters = `{"type": "object", "properties": {}}`
)

// Config holds the per-deployment knobs of the patient agent.
type Config struct {
	// SMSFallbackNumber receives booking confirmations when the call
	// session has no caller number on record.
	SMSFallbackNumber string `envconfig:"SMS_FALLBACK_NUMBER" split_words:"true" default:"+15551234567"`
}

// Agent wraps the patient workflow engine.
type Agent struct {
	*workflowx.Engine
}

// RecordingParams is the call-recording setup the runtime applies at call
// start.
type RecordingParams struct {
	RecordCall bool   `json:"record_call"`
	Format     string `json:"record_format"`
	Stereo     bool   `json:"record_stereo"`
}

func (a *Agent) RecordingParams() RecordingParams {
	return RecordingParams{RecordCall: true, Format: "mp3", Stereo: true}
}

func New(
	tables *directoryx.Tables,
	patients contractx.PatientDirectory,
	catalog contractx.AppointmentCatalog,
	store statex.Store,
	cfg Config,
	opts ...workflowx.Option,
) (*Agent, error) {
	if tables == nil {
		return nil, errors.New("reference tables are required")
	}
	if patients == nil {
		return nil, errors.New("patient directory is required")
	}
	if catalog == nil {
		return nil, errors.New("appointment catalog is required")
	}

	urgent := directoryx.NewUrgentMatcher(tables.UrgentSymptoms)

	contexts := []workflowx.ContextSpec{
		{
			ID:          contractx.ContextVerification,
			Instruction: verificationInstruction,
			ValidNext:   []contractx.ContextID{contractx.ContextTriage},
			Functions: []workflowx.FunctionSpec{
				{
					Info: &schema.ToolInfo{
						Name: "verify_patient",
						Desc: "Verify patient identity - SECURE function",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"dob":       {Type: schema.String, Desc: "Patient date of birth (YYYY-MM-DD)", Required: true},
							"member_id": {Type: schema.String, Desc: "Patient member ID", Required: true},
						}),
					},
					Parameters: verifyPatientParameters,
					Secure:     true,
					Handler:    verifyPatient(patients),
				},
				{
					Info: &schema.ToolInfo{
						Name:        "secure_input",
						Desc:        "Pause recording for secure input",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
					},
					Parameters: emptyParameters,
					Handler:    secureInput(),
				},
			},
		},
		{
			ID:               contractx.ContextTriage,
			Instruction:      triageInstruction,
			RequiresVerified: true,
			ValidNext:        []contractx.ContextID{contractx.ContextScheduling, contractx.ContextPrescriptions},
			Functions: []workflowx.FunctionSpec{
				{
					Info: &schema.ToolInfo{
						Name: "assess_symptoms",
						Desc: "Assess patient symptoms",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"symptoms": {Type: schema.String, Desc: "Description of symptoms", Required: true},
						}),
					},
					Parameters: assessSymptomsParameters,
					Handler:    assessSymptoms(urgent, tables),
				},
				{
					Info: &schema.ToolInfo{
						Name:        "escalate_urgent",
						Desc:        "Escalate to nurse for urgent symptoms",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
					},
					Parameters: emptyParameters,
					Handler:    escalateUrgent(tables),
				},
			},
		},
		{
			ID:               contractx.ContextScheduling,
			Instruction:      schedulingInstruction,
			RequiresVerified: true,
			Functions: []workflowx.FunctionSpec{
				{
					Info: &schema.ToolInfo{
						Name: "check_availability",
						Desc: "Check appointment availability",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"specialty": {Type: schema.String, Desc: "Medical specialty", Required: true},
							"date":      {Type: schema.String, Desc: "Preferred date (YYYY-MM-DD)"},
						}),
					},
					Parameters: checkAvailabilityParameters,
					Handler:    checkAvailability(catalog),
				},
				{
					Info: &schema.ToolInfo{
						Name: "book_appointment",
						Desc: "Book an appointment",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"slot_id": {Type: schema.String, Desc: "Selected appointment slot", Required: true},
						}),
					},
					Parameters: bookAppointmentParameters,
					Handler:    bookAppointment(cfg),
				},
			},
		},
		{
			ID:               contractx.ContextPrescriptions,
			Instruction:      prescriptionsInstruction,
			RequiresVerified: true,
			Functions: []workflowx.FunctionSpec{
				{
					Info: &schema.ToolInfo{
						Name: "request_refill",
						Desc: "Request prescription refill",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"medication": {Type: schema.String, Desc: "Name of medication", Required: true},
							"pharmacy":   {Type: schema.String, Desc: "Preferred pharmacy name", Required: true},
						}),
					},
					Parameters: requestRefillParameters,
					Handler:    requestRefill(),
				},
			},
		},
	}

	engine, err := workflowx.New(AgentName, contractx.ContextVerification, contexts, store, opts...)
	if err != nil {
		return nil, err
	}
	return &Agent{Engine: engine}, nil
}
