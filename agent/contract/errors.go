package contract

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnknownFunction    = errors.New("function is not declared by any context")
	ErrFunctionNotAllowed = errors.New("function is not allowed in the active context")
	ErrNotVerified        = errors.New("patient identity is not verified")
	ErrInvalidTransition  = errors.New("invalid context transition")
	ErrSessionClosed      = errors.New("call session is closed")
	ErrUnknownContext     = errors.New("context is not declared")
)
