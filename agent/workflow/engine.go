package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
)

// Engine dispatches inbound function calls for one agent. It owns the static
// context table and applies every result effect (global-data patch, context
// switch, terminal transfer) to the call's ConversationState.
type Engine struct {
	name     string
	initial  contractx.ContextID
	contexts map[contractx.ContextID]*ContextSpec
	order    []contractx.ContextID

	// functions is the agent-wide name index; a name is unique across
	// contexts, contexts only scope availability.
	functions map[string]*functionBinding

	store statex.Store
	now   func() time.Time

	graphRunner compose.Runnable[DispatchInput, DispatchOutput]
}

type functionBinding struct {
	spec      *FunctionSpec
	contextID contractx.ContextID
	schema    *gojsonschema.Schema
}

// DispatchInput is one inbound invocation from the external runtime. A blank
// SessionID starts a fresh session at the initial context.
//
// ContextChange carries a runtime-driven navigation: the runtime moves the
// conversation to one of the active context's declared next contexts before
// the function runs. It covers branches no function outcome takes on its own,
// such as triage handing the caller to prescriptions.
type DispatchInput struct {
	SessionID     string
	CallerNumber  string
	ContextChange contractx.ContextID
	Call          contractx.FunctionCall
}

type DispatchOutput struct {
	SessionID string
	Result    contractx.FunctionResult
}

type Option func(*Engine)

// WithClock substitutes the engine clock, for tests and replay.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(name string, initial contractx.ContextID, contexts []ContextSpec, store statex.Store, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("agent name is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if len(contexts) == 0 {
		return nil, errors.New("at least one context is required")
	}

	e := &Engine{
		name:      name,
		initial:   initial,
		contexts:  make(map[contractx.ContextID]*ContextSpec, len(contexts)),
		functions: make(map[string]*functionBinding, 8),
		store:     store,
		now:       time.Now,
	}

	for i := range contexts {
		c := contexts[i]
		if c.ID == "" {
			return nil, fmt.Errorf("context %d has an empty id", i)
		}
		if _, dup := e.contexts[c.ID]; dup {
			return nil, fmt.Errorf("duplicate context %s", c.ID)
		}
		e.contexts[c.ID] = &c
		e.order = append(e.order, c.ID)
	}

	if _, ok := e.contexts[initial]; !ok {
		return nil, fmt.Errorf("%w: initial context %s", contractx.ErrUnknownContext, initial)
	}

	for _, id := range e.order {
		c := e.contexts[id]
		for _, next := range c.ValidNext {
			if _, ok := e.contexts[next]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", contractx.ErrUnknownContext, c.ID, next)
			}
		}
		for i := range c.Functions {
			fn := &c.Functions[i]
			if fn.Info == nil || fn.Info.Name == "" {
				return nil, fmt.Errorf("context %s declares a function without tool info", c.ID)
			}
			if fn.Handler == nil {
				return nil, fmt.Errorf("function %s has no handler", fn.Info.Name)
			}
			if _, dup := e.functions[fn.Info.Name]; dup {
				return nil, fmt.Errorf("duplicate function %s", fn.Info.Name)
			}
			compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(fn.Parameters))
			if err != nil {
				return nil, fmt.Errorf("compile parameters schema for %s: %w", fn.Info.Name, err)
			}
			e.functions[fn.Info.Name] = &functionBinding{
				spec:      fn,
				contextID: c.ID,
				schema:    compiled,
			}
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	runner, err := e.compileDispatchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = runner

	return e, nil
}

// Dispatch handles one function invocation end to end: authorization, schema
// validation, handler execution, and state effects.
func (e *Engine) Dispatch(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	return e.graphRunner.Invoke(ctx, in)
}

func (e *Engine) Name() string {
	return e.name
}

// EndSession destroys a session's state. The external runtime calls it when
// the call tears down; afterwards the session id is free to start over.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// ToolInfos lists the functions a context exposes, in declaration order.
func (e *Engine) ToolInfos(id contractx.ContextID) []*schema.ToolInfo {
	c, ok := e.contexts[id]
	if !ok {
		return nil
	}
	infos := make([]*schema.ToolInfo, 0, len(c.Functions))
	for i := range c.Functions {
		infos = append(infos, c.Functions[i].Info)
	}
	return infos
}

// Descriptor renders the full context/function declaration for the external
// runtime.
func (e *Engine) Descriptor() AgentDescriptor {
	d := AgentDescriptor{
		Name:           e.name,
		InitialContext: e.initial,
	}
	for _, id := range e.order {
		c := e.contexts[id]
		cd := ContextDescriptor{
			ID:               c.ID,
			Instruction:      c.Instruction,
			RequiresVerified: c.RequiresVerified,
			ValidNext:        append([]contractx.ContextID(nil), c.ValidNext...),
		}
		for i := range c.Functions {
			fn := &c.Functions[i]
			cd.Functions = append(cd.Functions, FunctionDescriptor{
				Name:        fn.Info.Name,
				Description: fn.Info.Desc,
				Secure:      fn.Secure,
				Parameters:  json.RawMessage(fn.Parameters),
			})
		}
		d.Contexts = append(d.Contexts, cd)
	}
	return d
}
