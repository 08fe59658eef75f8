package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

// Global-data keys shared with the external runtime. The patch emitted by a
// function result uses these names; ApplyPatch folds them back into the
// typed fields below.
const (
	KeyPatientVerified = "patient_verified"
	KeyPatientName     = "patient_name"
	KeyPatientTier     = "patient_tier"
	KeySymptoms        = "symptoms"
)

var (
	ErrNilState       = errors.New("conversation state is nil")
	ErrEmptySessionID = errors.New("session id is empty")
	ErrClosedSession  = errors.New("session is closed")
)

// ConversationState is the per-call source of truth for workflow control.
// It is owned by exactly one call session and mutated only through ApplyPatch
// and the transition helpers; reference tables are never written here.
type ConversationState struct {
	SessionID    string `json:"session_id"`
	AgentName    string `json:"agent_name"`
	CallerNumber string `json:"caller_number,omitempty"`

	ActiveContext contractx.ContextID `json:"active_context"`
	Verified      bool                `json:"verified"`
	PatientName   string              `json:"patient_name,omitempty"`
	PatientTier   string              `json:"patient_tier,omitempty"`
	LastSymptoms  string              `json:"last_symptoms,omitempty"`

	// GlobalData carries patch keys that have no typed field, so the
	// runtime round-trips custom data untouched.
	GlobalData map[string]any `json:"global_data,omitempty"`

	// Closed is set after a terminal transfer; the engine refuses further
	// dispatches for a closed session.
	Closed bool `json:"closed,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState creates call state positioned at the initial context.
// An empty sessionID gets a generated one.
func NewConversationState(sessionID, agentName, callerNumber string, initial contractx.ContextID, now time.Time) *ConversationState {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &ConversationState{
		SessionID:     sessionID,
		AgentName:     agentName,
		CallerNumber:  callerNumber,
		ActiveContext: initial,
		GlobalData:    make(map[string]any, 4),
		StartedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Clone returns an independent copy. Stores hand out clones so that a caller
// mutating its copy mid-turn never leaks into persisted state.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	dup := *s
	dup.GlobalData = make(map[string]any, len(s.GlobalData))
	for k, v := range s.GlobalData {
		dup.GlobalData[k] = v
	}
	return &dup
}

// ApplyPatch merges a global-data patch into the state. Known keys update the
// typed fields; everything else lands in GlobalData. The patch is additive:
// absent keys leave existing values untouched.
func (s *ConversationState) ApplyPatch(patch map[string]any, now time.Time) error {
	if s == nil {
		return ErrNilState
	}
	for k, v := range patch {
		switch k {
		case KeyPatientVerified:
			verified, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: %s must be a bool", contractx.ErrValidation, KeyPatientVerified)
			}
			s.Verified = verified
		case KeyPatientName:
			name, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", contractx.ErrValidation, KeyPatientName)
			}
			s.PatientName = name
		case KeyPatientTier:
			tier, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", contractx.ErrValidation, KeyPatientTier)
			}
			s.PatientTier = tier
		case KeySymptoms:
			symptoms, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", contractx.ErrValidation, KeySymptoms)
			}
			s.LastSymptoms = symptoms
		default:
			if s.GlobalData == nil {
				s.GlobalData = make(map[string]any, 4)
			}
			s.GlobalData[k] = v
		}
	}
	s.Touch(now)
	return nil
}

// SwitchContext moves the call to the next context. Transition legality is
// the engine's job; this only records the move.
func (s *ConversationState) SwitchContext(next contractx.ContextID, now time.Time) error {
	if s == nil {
		return ErrNilState
	}
	if s.Closed {
		return ErrClosedSession
	}
	if next == "" {
		return fmt.Errorf("%w: empty context id", contractx.ErrValidation)
	}
	s.ActiveContext = next
	s.Touch(now)
	return nil
}

// Close marks the session ended, after a terminal transfer.
func (s *ConversationState) Close(now time.Time) {
	if s == nil {
		return
	}
	s.Closed = true
	s.Touch(now)
}

// Validate checks internal consistency, including the verification invariant:
// the call must not sit in a protected context while unverified.
func (s *ConversationState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if s.SessionID == "" {
		return ErrEmptySessionID
	}
	if s.ActiveContext == "" {
		return fmt.Errorf("%w: active context is empty", contractx.ErrValidation)
	}
	if !s.Verified {
		switch s.ActiveContext {
		case contractx.ContextTriage, contractx.ContextScheduling, contractx.ContextPrescriptions:
			return fmt.Errorf("%w: context=%s", contractx.ErrNotVerified, s.ActiveContext)
		}
	}
	return nil
}
