package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

func TestNewConversationStateGeneratesSessionID(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("", "telehealth-patient", "+15550001234", contractx.ContextVerification, now)
	if st.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if st.ActiveContext != contractx.ContextVerification {
		t.Fatalf("active context = %s", st.ActiveContext)
	}
	if st.Verified {
		t.Fatal("new state must be unverified")
	}
}

func TestApplyPatchUpdatesTypedFields(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", "telehealth-patient", "", contractx.ContextVerification, now)

	patch := map[string]any{
		KeyPatientVerified: true,
		KeyPatientName:     "John Smith",
		KeyPatientTier:     "premium",
		KeySymptoms:        "mild rash",
		"custom_key":       42,
	}
	if err := st.ApplyPatch(patch, now); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}

	if !st.Verified || st.PatientName != "John Smith" || st.PatientTier != "premium" {
		t.Fatalf("typed fields not applied: %+v", st)
	}
	if st.LastSymptoms != "mild rash" {
		t.Fatalf("last symptoms = %q", st.LastSymptoms)
	}
	if st.GlobalData["custom_key"] != 42 {
		t.Fatalf("custom key not kept: %v", st.GlobalData)
	}
}

func TestApplyPatchIsAdditive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", "telehealth-patient", "", contractx.ContextVerification, now)
	if err := st.ApplyPatch(map[string]any{KeyPatientName: "Jane Doe"}, now); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if err := st.ApplyPatch(map[string]any{KeySymptoms: "cough"}, now); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if st.PatientName != "Jane Doe" {
		t.Fatal("earlier patch value was lost")
	}
}

func TestApplyPatchRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", "telehealth-patient", "", contractx.ContextVerification, now)

	err := st.ApplyPatch(map[string]any{KeyPatientVerified: "yes"}, now)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if st.Verified {
		t.Fatal("verified must stay false after rejected patch")
	}
}

func TestSwitchContextOnClosedSession(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", "telehealth-patient", "", contractx.ContextVerification, now)
	st.Close(now)

	err := st.SwitchContext(contractx.ContextTriage, now)
	if !errors.Is(err, ErrClosedSession) {
		t.Fatalf("error = %v, want ErrClosedSession", err)
	}
}

func TestValidateEnforcesVerificationInvariant(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewConversationState("s1", "telehealth-patient", "", contractx.ContextVerification, now)
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	st.ActiveContext = contractx.ContextScheduling
	if err := st.Validate(); !errors.Is(err, contractx.ErrNotVerified) {
		t.Fatalf("error = %v, want ErrNotVerified", err)
	}

	st.Verified = true
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() after verification error = %v", err)
	}
}
