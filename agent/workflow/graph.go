package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/signalwire-academy/telehealth-connect/agent/contract"
	statex "github.com/signalwire-academy/telehealth-connect/agent/state"
)

// turnState threads one invocation through the dispatch pipeline.
type turnState struct {
	SessionID     string
	CallerNumber  string
	ContextChange contractx.ContextID
	Call          contractx.FunctionCall
	Now           time.Time

	State   *statex.ConversationState
	Binding *functionBinding

	Result contractx.FunctionResult
}

func (e *Engine) compileDispatchGraph(ctx context.Context) (compose.Runnable[DispatchInput, DispatchOutput], error) {
	graph := compose.NewGraph[DispatchInput, DispatchOutput]()

	if err := graph.AddLambdaNode("validate_call",
		compose.InvokableLambda(func(ctx context.Context, in DispatchInput) (*turnState, error) {
			return e.validateCall(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_call: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.loadOrCreateState(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("authorize",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.authorize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node authorize: %w", err)
	}

	if err := graph.AddLambdaNode("validate_arguments",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.validateArguments(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_arguments: %w", err)
	}

	if err := graph.AddLambdaNode("execute",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.execute(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute: %w", err)
	}

	if err := graph.AddLambdaNode("apply_result",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.applyResult(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_result: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return e.saveState(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (DispatchOutput, error) {
			return finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_call"},
		{"validate_call", "load_or_create_state"},
		{"load_or_create_state", "authorize"},
		{"authorize", "validate_arguments"},
		{"validate_arguments", "execute"},
		{"execute", "apply_result"},
		{"apply_result", "save_state"},
		{"save_state", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(e.name+".dispatch"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatch graph: %w", err)
	}
	return runner, nil
}

func (e *Engine) validateCall(in DispatchInput) (*turnState, error) {
	name := strings.TrimSpace(in.Call.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: function name is empty", contractx.ErrValidation)
	}
	return &turnState{
		SessionID:     strings.TrimSpace(in.SessionID),
		CallerNumber:  strings.TrimSpace(in.CallerNumber),
		ContextChange: in.ContextChange,
		Call: contractx.FunctionCall{
			Name:      name,
			Arguments: in.Call.Arguments,
		},
		// Keep the clock's own location: the hours oracle reads the
		// local hour component.
		Now: e.now(),
	}, nil
}

func (e *Engine) loadOrCreateState(ctx context.Context, in *turnState) (*turnState, error) {
	if in.SessionID != "" {
		st, err := e.store.Load(ctx, in.SessionID)
		if err == nil {
			in.State = st
			return in, nil
		}
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, fmt.Errorf("load session state: %w", err)
		}
	}

	in.State = statex.NewConversationState(in.SessionID, e.name, in.CallerNumber, e.initial, in.Now)
	in.SessionID = in.State.SessionID
	return in, nil
}

// authorize enforces the static declarations before any workflow logic runs:
// a runtime-driven context change must follow a declared transition, the
// function must exist, must belong to the active context, and protected
// contexts are unreachable while the caller is unverified.
func (e *Engine) authorize(in *turnState) (*turnState, error) {
	if in.State.Closed {
		return nil, fmt.Errorf("%w: session=%s", contractx.ErrSessionClosed, in.SessionID)
	}

	if next := in.ContextChange; next != "" && next != in.State.ActiveContext {
		current, ok := e.contexts[in.State.ActiveContext]
		if !ok {
			return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownContext, in.State.ActiveContext)
		}
		if !current.allowsNext(next) {
			return nil, fmt.Errorf("%w: %s -> %s", contractx.ErrInvalidTransition, in.State.ActiveContext, next)
		}
		if err := in.State.SwitchContext(next, in.Now); err != nil {
			return nil, err
		}
	}

	binding, ok := e.functions[in.Call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownFunction, in.Call.Name)
	}
	if binding.contextID != in.State.ActiveContext {
		return nil, fmt.Errorf("%w: function=%s active=%s declared=%s",
			contractx.ErrFunctionNotAllowed, in.Call.Name, in.State.ActiveContext, binding.contextID)
	}

	active, ok := e.contexts[in.State.ActiveContext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownContext, in.State.ActiveContext)
	}
	if active.RequiresVerified && !in.State.Verified {
		return nil, fmt.Errorf("%w: function=%s", contractx.ErrNotVerified, in.Call.Name)
	}

	in.Binding = binding
	return in, nil
}

func (e *Engine) validateArguments(in *turnState) (*turnState, error) {
	args := in.Call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	result, err := in.Binding.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, fmt.Errorf("validate arguments for %s: %w", in.Call.Name, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			details = append(details, issue.String())
		}
		return nil, fmt.Errorf("%w: %s: %s", contractx.ErrValidation, in.Call.Name, strings.Join(details, "; "))
	}
	in.Call.Arguments = args
	return in, nil
}

func (e *Engine) execute(ctx context.Context, in *turnState) (*turnState, error) {
	// Secure function arguments must never reach the logs.
	log.Debug().
		Str("agent", e.name).
		Str("session", in.SessionID).
		Str("context", string(in.State.ActiveContext)).
		Str("function", in.Call.Name).
		Bool("secure", in.Binding.spec.Secure).
		Msg("dispatching function")

	result, err := in.Binding.spec.Handler(ctx, &Turn{
		State: in.State,
		Now:   in.Now,
		Args:  in.Call.Arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", in.Call.Name, err)
	}
	in.Result = result
	return in, nil
}

func (e *Engine) applyResult(in *turnState) (*turnState, error) {
	st := in.State

	if len(in.Result.GlobalDataPatch) > 0 {
		if err := st.ApplyPatch(in.Result.GlobalDataPatch, in.Now); err != nil {
			return nil, err
		}
	}

	if next := in.Result.ContextSwitch; next != "" {
		active, ok := e.contexts[st.ActiveContext]
		if !ok {
			return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownContext, st.ActiveContext)
		}
		if !active.allowsNext(next) {
			return nil, fmt.Errorf("%w: %s -> %s", contractx.ErrInvalidTransition, st.ActiveContext, next)
		}
		if err := st.SwitchContext(next, in.Now); err != nil {
			return nil, err
		}
	}

	if t := in.Result.Transfer; t != nil && t.Terminal {
		st.Close(in.Now)
		log.Info().
			Str("agent", e.name).
			Str("session", in.SessionID).
			Str("destination", string(t.Destination)).
			Msg("terminal transfer, session closed")
	}

	st.Touch(in.Now)
	return in, nil
}

func (e *Engine) saveState(ctx context.Context, in *turnState) (*turnState, error) {
	if err := in.State.Validate(); err != nil {
		return nil, fmt.Errorf("state invalid after %s: %w", in.Call.Name, err)
	}
	if err := e.store.Save(ctx, in.State); err != nil {
		return nil, fmt.Errorf("save session state: %w", err)
	}
	return in, nil
}

func finalize(in *turnState) (DispatchOutput, error) {
	if strings.TrimSpace(in.Result.Message) == "" {
		return DispatchOutput{}, fmt.Errorf("%w: %s returned an empty message", contractx.ErrValidation, in.Call.Name)
	}
	return DispatchOutput{
		SessionID: in.SessionID,
		Result:    in.Result,
	}, nil
}
