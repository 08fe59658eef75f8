// Package workflow runs the guarded, context-scoped function dispatch both
// agents are built on. A context declares its instruction text, its callable
// functions, and the contexts reachable next; the engine enforces those
// declarations on every inbound invocation instead of trusting the external
// runtime's context graph alone.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
)

// Turn is what a function handler sees for one invocation: validated
// arguments plus a read view of the call's state and clock.
type Turn struct {
	State *statex.ConversationState
	Now   time.Time
	Args  map[string]any
}

// Handler implements one call-flow function. Handlers return caller-facing
// results; technical errors are reserved for broken wiring, not bad input.
type Handler func(ctx context.Context, turn *Turn) (contractx.FunctionResult, error)

// FunctionSpec declares one function: its runtime-facing tool info, the JSON
// Schema its arguments are validated against before the handler runs, and
// whether the runtime must treat it as secure (recording paused, arguments
// never logged).
type FunctionSpec struct {
	Info       *schema.ToolInfo
	Parameters string
	Secure     bool
	Handler    Handler
}

// ContextSpec declares one conversation stage. RequiresVerified contexts
// refuse every function while the caller's identity is unverified.
type ContextSpec struct {
	ID               contractx.ContextID
	Instruction      string
	RequiresVerified bool
	ValidNext        []contractx.ContextID
	Functions        []FunctionSpec
}

func (c *ContextSpec) allowsNext(next contractx.ContextID) bool {
	for _, id := range c.ValidNext {
		if id == next {
			return true
		}
	}
	return false
}

// DecodeArgs converts a validated argument map into a typed request struct.
func DecodeArgs[T any](args map[string]any) (T, error) {
	var req T
	raw, err := json.Marshal(args)
	if err != nil {
		return req, fmt.Errorf("%w: encode arguments: %v", contractx.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: decode arguments: %v", contractx.ErrValidation, err)
	}
	return req, nil
}

/* ----------------------------- descriptors ------------------------------ */

// AgentDescriptor is the machine-readable declaration handed to the external
// runtime: every context, its instruction, and its function contract.
type AgentDescriptor struct {
	Name           string              `json:"name"`
	InitialContext contractx.ContextID `json:"initial_context"`
	Contexts       []ContextDescriptor `json:"contexts"`
}

type ContextDescriptor struct {
	ID               contractx.ContextID   `json:"id"`
	Instruction      string                `json:"instruction"`
	RequiresVerified bool                  `json:"requires_verified,omitempty"`
	ValidNext        []contractx.ContextID `json:"valid_next,omitempty"`
	Functions        []FunctionDescriptor  `json:"functions"`
}

type FunctionDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Secure      bool            `json:"secure,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}
