package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName        = errors.New("tool name is empty")
	ErrNilHandler       = errors.New("tool handler is nil")
	ErrDuplicateTool    = errors.New("tool already registered")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrHandlerFailed    = errors.New("tool handler failed")
)

// DuplicateToolError is returned by Register when the name is taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateTool, e.Name)
}

func (e *DuplicateToolError) Unwrap() error { return ErrDuplicateTool }

// UnknownToolError reports a call to a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownTool, e.Name)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// ParamError describes one offending parameter.
type ParamError struct {
	Name   string
	Reason string
}

// InvalidArgumentsError lists every parameter that failed validation.
type InvalidArgumentsError struct {
	Tool   string
	Params []ParamError
}

func (e *InvalidArgumentsError) Error() string {
	parts := make([]string, 0, len(e.Params))
	for _, p := range e.Params {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Reason))
	}
	return fmt.Sprintf("%s for %s: %s", ErrInvalidArguments, e.Tool, strings.Join(parts, ", "))
}

func (e *InvalidArgumentsError) Unwrap() error { return ErrInvalidArguments }

// ParamNames returns the names of the offending parameters in order.
func (e *InvalidArgumentsError) ParamNames() []string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return names
}

// HandlerError wraps a failure (error or panic) raised by a tool handler.
type HandlerError struct {
	Tool string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *HandlerError) Unwrap() []error { return []error{ErrHandlerFailed, e.Err} }

// errorMessage is the text placed in a structured error payload.
func errorMessage(err error) string {
	var he *HandlerError
	if errors.As(err, &he) {
		return he.Err.Error()
	}
	return err.Error()
}
