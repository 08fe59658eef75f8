package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	directoryx "github.com/signalwire-academy/telehealth-connect/agent/directory"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
	workflowx "github.com/signalwire-academy/telehealth-connect/agent/workflow"
)

func newTestAgent(t *testing.T, now time.Time) *Agent {
	t.Helper()

	tables, err := directoryx.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	agent, err := New(tables, statex.NewMemoryStore(), workflowx.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return agent
}

func dispatch(t *testing.T, agent *Agent, name string, args map[string]any) workflowx.DispatchOutput {
	t.Helper()

	out, err := agent.Dispatch(context.Background(), workflowx.DispatchInput{
		Call: contractx.FunctionCall{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("Dispatch(%s) error = %v", name, err)
	}
	return out
}

func TestRouteCallKnownDepartments(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		department string
		wantDest   contractx.Destination
	}{
		{"triage", "/patient"},
		{"scheduling", "/patient"},
		{"prescriptions", "/patient"},
		{"billing", "+15551111111"},
		{"emergency", "+15559999999"},
	}
	for _, tc := range tests {
		agent := newTestAgent(t, now)
		out := dispatch(t, agent, "route_call", map[string]any{"department": tc.department})

		if out.Result.Transfer == nil {
			t.Fatalf("route_call(%s): no transfer action", tc.department)
		}
		if !out.Result.Transfer.Terminal {
			t.Fatalf("route_call(%s): transfer must be terminal", tc.department)
		}
		if out.Result.Transfer.Destination != tc.wantDest {
			t.Fatalf("route_call(%s) destination = %s, want %s",
				tc.department, out.Result.Transfer.Destination, tc.wantDest)
		}
		if !strings.Contains(out.Result.Message, tc.department) {
			t.Fatalf("route_call(%s) message = %q", tc.department, out.Result.Message)
		}
	}
}

func TestRouteCallUnknownDepartmentFallsBackToTriage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	agent := newTestAgent(t, now)

	out := dispatch(t, agent, "route_call", map[string]any{"department": "cafeteria"})
	if out.Result.Transfer.Destination != "/patient" {
		t.Fatalf("destination = %s, want /patient", out.Result.Transfer.Destination)
	}
	if !strings.Contains(out.Result.Message, "triage") {
		t.Fatalf("message = %q, want triage fallback", out.Result.Message)
	}
}

func TestRouteCallMissingDepartmentFallsBackToTriage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	agent := newTestAgent(t, now)

	out := dispatch(t, agent, "route_call", nil)
	if out.Result.Transfer.Destination != "/patient" {
		t.Fatalf("destination = %s, want /patient", out.Result.Transfer.Destination)
	}
}

func TestRouteCallEndsGatewayInvolvement(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	agent := newTestAgent(t, now)

	out := dispatch(t, agent, "route_call", map[string]any{"department": "billing"})

	if _, err := agent.Dispatch(context.Background(), workflowx.DispatchInput{
		SessionID: out.SessionID,
		Call:      contractx.FunctionCall{Name: "get_hours"},
	}); err == nil {
		t.Fatal("expected dispatch after terminal transfer to fail")
	}
}

func TestGetHoursWeekdayOpen(t *testing.T) {
	t.Parallel()

	// Monday 10:00, weekday hours 8-20.
	agent := newTestAgent(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	out := dispatch(t, agent, "get_hours", nil)

	if !strings.Contains(out.Result.Message, "currently open") {
		t.Fatalf("message = %q, want open", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "8AM to 8PM") {
		t.Fatalf("message = %q, want 8AM to 8PM", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "weekdays") {
		t.Fatalf("message = %q, want weekdays", out.Result.Message)
	}
	if out.Result.Transfer != nil {
		t.Fatal("get_hours must not transfer")
	}
}

func TestGetHoursWeekdayBounds(t *testing.T) {
	t.Parallel()

	// Opening hour is inclusive, closing hour exclusive.
	atOpen := newTestAgent(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	if out := dispatch(t, atOpen, "get_hours", nil); !strings.Contains(out.Result.Message, "currently open") {
		t.Fatalf("at open hour: %q", out.Result.Message)
	}

	atClose := newTestAgent(t, time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC))
	if out := dispatch(t, atClose, "get_hours", nil); !strings.Contains(out.Result.Message, "currently closed") {
		t.Fatalf("at close hour: %q", out.Result.Message)
	}

	beforeOpen := newTestAgent(t, time.Date(2024, 1, 15, 7, 59, 0, 0, time.UTC))
	if out := dispatch(t, beforeOpen, "get_hours", nil); !strings.Contains(out.Result.Message, "currently closed") {
		t.Fatalf("before open: %q", out.Result.Message)
	}
}

func TestGetHoursWeekendClosedOffersNurseLine(t *testing.T) {
	t.Parallel()

	// Saturday 18:00, weekend hours 9-17.
	agent := newTestAgent(t, time.Date(2024, 1, 13, 18, 0, 0, 0, time.UTC))
	out := dispatch(t, agent, "get_hours", nil)

	if !strings.Contains(out.Result.Message, "currently closed") {
		t.Fatalf("message = %q, want closed", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "9AM to 5PM") {
		t.Fatalf("message = %q, want 9AM to 5PM", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "weekends") {
		t.Fatalf("message = %q, want weekends", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "after-hours nurse") {
		t.Fatalf("message = %q, want nurse line offer", out.Result.Message)
	}
	if out.Result.Transfer != nil {
		t.Fatal("closed-hours message is advisory only, no transfer")
	}
}

func TestEmergencyGuidance(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	out := dispatch(t, agent, "emergency_guidance", nil)

	if !strings.Contains(out.Result.Message, "911") {
		t.Fatalf("message = %q, want 911 instruction", out.Result.Message)
	}
	if !strings.Contains(out.Result.Message, "on-call nurse") {
		t.Fatalf("message = %q, want nurse offer", out.Result.Message)
	}
	if out.Result.Transfer != nil {
		t.Fatal("emergency_guidance must not transfer by itself")
	}
}

func TestFormatHour12(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want string
	}{
		{0, "12AM"},
		{8, "8AM"},
		{9, "9AM"},
		{12, "12PM"},
		{17, "5PM"},
		{20, "8PM"},
		{24, "12AM"},
	}
	for _, tc := range tests {
		if got := formatHour12(tc.hour); got != tc.want {
			t.Fatalf("formatHour12(%d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestDescriptorDeclaresAllFunctions(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	d := agent.Descriptor()

	if d.Name != AgentName {
		t.Fatalf("name = %q", d.Name)
	}
	if len(d.Contexts) != 1 {
		t.Fatalf("contexts = %d, want 1", len(d.Contexts))
	}
	if got := len(d.Contexts[0].Functions); got != 3 {
		t.Fatalf("functions = %d, want 3", got)
	}
}
