package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by the registry, the dispatcher and every transport.
const (
	CodeDuplicateResource = "DUPLICATE_RESOURCE"
	CodeUnknownResource   = "UNKNOWN_RESOURCE"
	CodeUnknownAction     = "UNKNOWN_ACTION"
	CodeMalformedRequest  = "MALFORMED_REQUEST"
	CodeMissingParameter  = "MISSING_PARAMETER"
	CodeUnknownParameter  = "UNKNOWN_PARAMETER"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeVersionMismatch   = "VERSION_MISMATCH"
	CodeActionExecution   = "ACTION_EXECUTION_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// RegistryError is a structured error raised while resolving, binding or executing an action.
type RegistryError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	// Err is the underlying failure for ACTION_EXECUTION_ERROR.
	Err error `json:"-"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}

// ErrUnknownResource reports a resource name that is not registered.
func ErrUnknownResource(name string) *RegistryError {
	return &RegistryError{
		Code:    CodeUnknownResource,
		Message: fmt.Sprintf("Resource %s is invalid!", name),
		Details: map[string]string{"resource": name},
	}
}

// ErrUnknownAction reports an action name missing from a resource manifest.
func ErrUnknownAction(resource, action string) *RegistryError {
	return &RegistryError{
		Code:    CodeUnknownAction,
		Message: fmt.Sprintf("Action %s is invalid for resource %s!", action, resource),
		Details: map[string]string{"resource": resource, "action": action},
	}
}

// ErrMissingParameters names every required parameter the caller left out.
func ErrMissingParameters(action string, names []string) *RegistryError {
	return &RegistryError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("Action %s is missing required parameter(s): %s", action, strings.Join(names, ", ")),
		Details: names,
	}
}

// ErrUnknownParameters names every supplied key the action does not declare.
func ErrUnknownParameters(action string, names []string) *RegistryError {
	return &RegistryError{
		Code:    CodeUnknownParameter,
		Message: fmt.Sprintf("Action %s does not accept parameter(s): %s", action, strings.Join(names, ", ")),
		Details: names,
	}
}

// ErrInvalidParameter reports a value that could not be converted to the declared kind.
func ErrInvalidParameter(name string, kind Kind, err error) *RegistryError {
	return &RegistryError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("Parameter %s must be a %s: %v", name, kind, err),
		Details: map[string]string{"parameter": name, "kind": kind.String()},
		Err:     err,
	}
}

// ErrActionExecution wraps a failure raised inside an action.
func ErrActionExecution(resource, action string, err error) *RegistryError {
	return &RegistryError{
		Code:    CodeActionExecution,
		Message: err.Error(),
		Details: map[string]string{"resource": resource, "action": action},
		Err:     err,
	}
}

// CodeOf returns the code of a RegistryError anywhere in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var regErr *RegistryError
	if errors.As(err, &regErr) {
		return regErr.Code
	}
	return CodeInternal
}

// IsClientError reports whether code is a bad-request class failure: the caller asked for
// something that does not exist or supplied parameters that do not fit.
func IsClientError(code string) bool {
	switch code {
	case CodeUnknownResource, CodeUnknownAction, CodeMalformedRequest,
		CodeMissingParameter, CodeUnknownParameter, CodeInvalidParameter, CodeVersionMismatch:
		return true
	}
	return false
}
