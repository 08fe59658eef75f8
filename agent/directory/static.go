package directory

import (
	"context"
	"strings"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

// StaticPatientDirectory serves the fixture member records from memory.
type StaticPatientDirectory struct {
	byID map[string]contractx.PatientRecord
}

var _ contractx.PatientDirectory = (*StaticPatientDirectory)(nil)

func NewStaticPatientDirectory(records []contractx.PatientRecord) *StaticPatientDirectory {
	byID := make(map[string]contractx.PatientRecord, len(records))
	for _, r := range records {
		byID[strings.ToUpper(r.MemberID)] = r
	}
	return &StaticPatientDirectory{byID: byID}
}

// Lookup is keyed by uppercased member id; callers may pass any casing.
func (d *StaticPatientDirectory) Lookup(_ context.Context, memberID string) (contractx.PatientRecord, bool, error) {
	rec, ok := d.byID[strings.ToUpper(strings.TrimSpace(memberID))]
	return rec, ok, nil
}

// StaticAppointmentCatalog serves the fixture slot table from memory.
// Booking does not consume slots: the catalog stays read-only at call time so
// concurrently active calls need no locking.
type StaticAppointmentCatalog struct {
	slots map[string][]string
}

var _ contractx.AppointmentCatalog = (*StaticAppointmentCatalog)(nil)

func NewStaticAppointmentCatalog(slots map[string][]string) *StaticAppointmentCatalog {
	copied := make(map[string][]string, len(slots))
	for specialty, ids := range slots {
		copied[specialty] = append([]string(nil), ids...)
	}
	return &StaticAppointmentCatalog{slots: copied}
}

func (c *StaticAppointmentCatalog) Slots(_ context.Context, specialty string) ([]string, error) {
	ids := c.slots[specialty]
	// copy so callers cannot mutate the shared table
	return append([]string(nil), ids...), nil
}

// UrgentMatcher runs the case-insensitive substring scan that decides
// escalation during triage.
type UrgentMatcher struct {
	terms []string
}

func NewUrgentMatcher(terms []string) *UrgentMatcher {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &UrgentMatcher{terms: lowered}
}

// Match reports the first urgent term found in the description. All matches
// trigger identical escalation, so scan order does not affect correctness.
func (m *UrgentMatcher) Match(description string) (string, bool) {
	lowered := strings.ToLower(description)
	for _, term := range m.terms {
		if strings.Contains(lowered, term) {
			return term, true
		}
	}
	return "", false
}
