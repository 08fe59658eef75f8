package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

func TestLoadEmbeddedFixtures(t *testing.T) {
	t.Parallel()

	tables, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tables.Departments) != 5 {
		t.Fatalf("expected 5 departments, got %d", len(tables.Departments))
	}
	if len(tables.Patients) != 2 {
		t.Fatalf("expected 2 patient records, got %d", len(tables.Patients))
	}
	if len(tables.UrgentSymptoms) != 4 {
		t.Fatalf("expected 4 urgent symptoms, got %d", len(tables.UrgentSymptoms))
	}
	if got := tables.EmergencyDestination(); got != "+15559999999" {
		t.Fatalf("EmergencyDestination() = %q", got)
	}
}

func TestResolveDepartment(t *testing.T) {
	t.Parallel()

	tables, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		requested string
		wantDept  contractx.Department
		wantDest  contractx.Destination
	}{
		{"triage", contractx.DepartmentTriage, "/patient"},
		{"scheduling", contractx.DepartmentScheduling, "/patient"},
		{"prescriptions", contractx.DepartmentPrescriptions, "/patient"},
		{"billing", contractx.DepartmentBilling, "+15551111111"},
		{"emergency", contractx.DepartmentEmergency, "+15559999999"},
		{"cafeteria", contractx.DepartmentTriage, "/patient"},
		{"", contractx.DepartmentTriage, "/patient"},
	}
	for _, tc := range tests {
		dept, dest := tables.ResolveDepartment(tc.requested)
		if dept != tc.wantDept || dest != tc.wantDest {
			t.Fatalf("ResolveDepartment(%q) = (%s, %s), want (%s, %s)",
				tc.requested, dept, dest, tc.wantDept, tc.wantDest)
		}
	}
}

func TestHoursForClassifiesWeekend(t *testing.T) {
	t.Parallel()

	tables, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	saturday := time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC)
	class, span := tables.HoursFor(saturday)
	if class != Weekend {
		t.Fatalf("HoursFor(saturday) class = %s, want weekend", class)
	}
	if span.Open != 9 || span.Close != 17 {
		t.Fatalf("weekend span = %+v", span)
	}

	sunday := time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)
	if class, _ := tables.HoursFor(sunday); class != Weekend {
		t.Fatalf("HoursFor(sunday) class = %s, want weekend", class)
	}

	monday := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	class, span = tables.HoursFor(monday)
	if class != Weekday {
		t.Fatalf("HoursFor(monday) class = %s, want weekday", class)
	}
	if span.Open != 8 || span.Close != 20 {
		t.Fatalf("weekday span = %+v", span)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	raw := []byte(`
departments:
  triage: /intake
  emergency: "+15550000911"
hours:
  weekday: { open: 7, close: 19 }
patients:
  - { member_id: X000001, name: Test Person, dob: "1990-01-01", tier: standard }
slots:
  general: ["2024-02-01 9:00"]
urgent_symptoms: [seizure]
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}

	tables, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if _, dest := tables.ResolveDepartment("triage"); dest != "/intake" {
		t.Fatalf("triage destination = %q, want /intake", dest)
	}
	if got := tables.EmergencyDestination(); got != "+15550000911" {
		t.Fatalf("EmergencyDestination() = %q", got)
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	t.Parallel()

	base := func() *Tables {
		return &Tables{
			Departments: map[contractx.Department]contractx.Destination{
				contractx.DepartmentTriage:    "/patient",
				contractx.DepartmentEmergency: "+15559999999",
			},
			Hours: map[DayClass]HoursSpan{Weekday: {Open: 8, Close: 20}},
		}
	}

	missingTriage := base()
	delete(missingTriage.Departments, contractx.DepartmentTriage)
	if err := missingTriage.Validate(); err == nil {
		t.Fatal("expected error for missing triage entry")
	}

	badHours := base()
	badHours.Hours[Weekday] = HoursSpan{Open: 20, Close: 8}
	if err := badHours.Validate(); err == nil {
		t.Fatal("expected error for inverted hours")
	}

	dupPatients := base()
	dupPatients.Patients = []contractx.PatientRecord{
		{MemberID: "M1"}, {MemberID: "M1"},
	}
	if err := dupPatients.Validate(); err == nil {
		t.Fatal("expected error for duplicate member id")
	}
}

func TestStaticPatientDirectoryLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	dir := NewStaticPatientDirectory([]contractx.PatientRecord{
		{MemberID: "M123456", Name: "John Smith", DOB: "1980-01-15", Tier: "premium"},
	})

	rec, ok, err := dir.Lookup(context.Background(), "m123456")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("expected lookup hit for lowercase id")
	}
	if rec.Name != "John Smith" {
		t.Fatalf("record name = %q", rec.Name)
	}

	if _, ok, _ := dir.Lookup(context.Background(), "M999999"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestStaticAppointmentCatalogReturnsCopies(t *testing.T) {
	t.Parallel()

	catalog := NewStaticAppointmentCatalog(map[string][]string{
		"dermatology": {"2024-01-17 10:00", "2024-01-17 14:00"},
	})

	first, err := catalog.Slots(context.Background(), "dermatology")
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	first[0] = "mutated"

	second, err := catalog.Slots(context.Background(), "dermatology")
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	if second[0] != "2024-01-17 10:00" {
		t.Fatalf("shared table was mutated: %q", second[0])
	}

	empty, err := catalog.Slots(context.Background(), "oncology")
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no slots for unknown specialty, got %v", empty)
	}
}

func TestUrgentMatcher(t *testing.T) {
	t.Parallel()

	matcher := NewUrgentMatcher([]string{"chest pain", "difficulty breathing", "severe bleeding", "unconscious"})

	term, ok := matcher.Match("I have CHEST PAIN and feel dizzy")
	if !ok {
		t.Fatal("expected urgent match")
	}
	if term != "chest pain" {
		t.Fatalf("matched term = %q", term)
	}

	if _, ok := matcher.Match("mild headache"); ok {
		t.Fatal("expected no match for mild symptoms")
	}
}
