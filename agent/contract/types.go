package contract

// ContextID names a stage of a guided call. The external runtime keeps one
// context active per call and only dispatches functions that context declares.
type ContextID string

const (
	// Gateway agent runs a single context.
	ContextReception ContextID = "reception"

	// Patient agent workflow contexts.
	ContextVerification  ContextID = "verification"
	ContextTriage        ContextID = "triage"
	ContextScheduling    ContextID = "scheduling"
	ContextPrescriptions ContextID = "prescriptions"
)

type Department string

const (
	DepartmentTriage        Department = "triage"
	DepartmentScheduling    Department = "scheduling"
	DepartmentPrescriptions Department = "prescriptions"
	DepartmentBilling       Department = "billing"
	DepartmentEmergency     Department = "emergency"
)

// Destination is either an internal workflow route ("/patient") or an
// external phone number in E.164 form.
type Destination string

func (d Destination) IsInternal() bool {
	return len(d) > 0 && d[0] == '/'
}

type RecordingAction string

const (
	RecordingPause  RecordingAction = "pause"
	RecordingResume RecordingAction = "resume"
)

// RecordingControl is a fire-and-forget directive to the telephony layer.
type RecordingControl struct {
	Action    RecordingAction `json:"action"`
	ControlID string          `json:"control_id,omitempty"`
	Format    string          `json:"format,omitempty"`
	Stereo    bool            `json:"stereo,omitempty"`
}

// TransferAction redirects the call. Terminal transfers end the agent's
// involvement; no further functions are dispatched for the session.
type TransferAction struct {
	Destination  Destination `json:"destination"`
	FinalMessage string      `json:"final_message,omitempty"`
	Terminal     bool        `json:"terminal"`
}

const SideEffectSendSMS = "send_sms"

// SideEffect is an ordered action the runtime executes after the turn,
// e.g. send_sms with {to, body}.
type SideEffect struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// FunctionResult is what every call-flow function returns to the runtime.
type FunctionResult struct {
	Message         string            `json:"message"`
	ContextSwitch   ContextID         `json:"context_switch,omitempty"`
	Transfer        *TransferAction   `json:"transfer,omitempty"`
	Recording       *RecordingControl `json:"recording,omitempty"`
	GlobalDataPatch map[string]any    `json:"global_data_patch,omitempty"`
	SideEffects     []SideEffect      `json:"side_effects,omitempty"`
	PostProcess     bool              `json:"post_process,omitempty"`
}

// FunctionCall is one inbound tool invocation from the runtime.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// PatientRecord is immutable reference data keyed by member id.
type PatientRecord struct {
	MemberID string `json:"member_id" yaml:"member_id" bun:"member_id,pk"`
	Name     string `json:"name" yaml:"name" bun:"name"`
	DOB      string `json:"dob" yaml:"dob" bun:"dob"`
	Tier     string `json:"tier" yaml:"tier" bun:"tier"`
}

/* ------------------------- typed function requests ------------------------ */

// Requests are decoded from validated argument maps; schema validation at the
// dispatch boundary guarantees required fields are present.

type RouteCallRequest struct {
	Department string `json:"department"`
}

type VerifyPatientRequest struct {
	DOB      string `json:"dob"`
	MemberID string `json:"member_id"`
}

type AssessSymptomsRequest struct {
	Symptoms string `json:"symptoms"`
}

type CheckAvailabilityRequest struct {
	Specialty string `json:"specialty"`
	Date      string `json:"date,omitempty"`
}

type BookAppointmentRequest struct {
	SlotID string `json:"slot_id"`
}

type RequestRefillRequest struct {
	Medication string `json:"medication"`
	Pharmacy   string `json:"pharmacy"`
}
