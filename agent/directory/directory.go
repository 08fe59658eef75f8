// Package directory holds the immutable reference tables both agents route
// against: department destinations, operating hours, the member directory,
// the appointment slot catalog, and the urgent symptom set. Tables are built
// once at process start and shared read-only across call sessions.
package directory

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
)

//go:embed fixtures.yaml
var fixturesRaw []byte

type DayClass string

const (
	Weekday DayClass = "weekday"
	Weekend DayClass = "weekend"
)

// HoursSpan is a 24h-clock open/close pair; open is inclusive, close exclusive.
type HoursSpan struct {
	Open  int `yaml:"open" json:"open"`
	Close int `yaml:"close" json:"close"`
}

// Tables is the full fixture set. Loaded once, never mutated at call time.
type Tables struct {
	Departments    map[contractx.Department]contractx.Destination `yaml:"departments"`
	Hours          map[DayClass]HoursSpan                         `yaml:"hours"`
	Patients       []contractx.PatientRecord                      `yaml:"patients"`
	Slots          map[string][]string                            `yaml:"slots"`
	UrgentSymptoms []string                                       `yaml:"urgent_symptoms"`
}

// Load returns the embedded default tables.
func Load() (*Tables, error) {
	return parse(fixturesRaw)
}

// LoadFile reads tables from an external yaml file, replacing the embedded
// defaults wholesale.
func LoadFile(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal fixtures: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) Validate() error {
	if len(t.Departments) == 0 {
		return fmt.Errorf("fixtures: departments table is empty")
	}
	if _, ok := t.Departments[contractx.DepartmentTriage]; !ok {
		return fmt.Errorf("fixtures: departments table needs a %q entry for fallback routing", contractx.DepartmentTriage)
	}
	if _, ok := t.Departments[contractx.DepartmentEmergency]; !ok {
		return fmt.Errorf("fixtures: departments table needs an %q entry for escalation", contractx.DepartmentEmergency)
	}
	for class, span := range t.Hours {
		if class != Weekday && class != Weekend {
			return fmt.Errorf("fixtures: unknown day class %q", class)
		}
		if span.Open < 0 || span.Close > 24 || span.Open >= span.Close {
			return fmt.Errorf("fixtures: invalid hours for %s: open=%d close=%d", class, span.Open, span.Close)
		}
	}
	seen := make(map[string]struct{}, len(t.Patients))
	for _, p := range t.Patients {
		if p.MemberID == "" {
			return fmt.Errorf("fixtures: patient record with empty member_id")
		}
		if _, dup := seen[p.MemberID]; dup {
			return fmt.Errorf("fixtures: duplicate member_id %s", p.MemberID)
		}
		seen[p.MemberID] = struct{}{}
	}
	return nil
}

// ResolveDepartment maps a requested department to its destination. Unknown
// or empty input degrades to the triage destination rather than failing.
func (t *Tables) ResolveDepartment(requested string) (contractx.Department, contractx.Destination) {
	dept := contractx.Department(requested)
	if dest, ok := t.Departments[dept]; ok {
		return dept, dest
	}
	return contractx.DepartmentTriage, t.Departments[contractx.DepartmentTriage]
}

// EmergencyDestination is the transfer target for urgent escalations.
func (t *Tables) EmergencyDestination() contractx.Destination {
	return t.Departments[contractx.DepartmentEmergency]
}

// HoursFor classifies a timestamp's local day and returns that day's span.
func (t *Tables) HoursFor(now time.Time) (DayClass, HoursSpan) {
	class := Weekday
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		class = Weekend
	}
	return class, t.Hours[class]
}
