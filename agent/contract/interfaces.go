package contract

import "context"

// PatientDirectory resolves members for identity verification. Lookup returns
// ok=false on an unknown member id; it never distinguishes which credential
// failed further up the stack.
type PatientDirectory interface {
	Lookup(ctx context.Context, memberID string) (PatientRecord, bool, error)
}

// AppointmentCatalog lists open slots per specialty, ordered soonest first.
// Unknown specialties yield an empty list, not an error.
type AppointmentCatalog interface {
	Slots(ctx context.Context, specialty string) ([]string, error)
}
