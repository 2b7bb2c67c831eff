package types

import "fmt"

// ValidationError rejects a single field value. The message is fed back into
// the next prompt, so it must read like something an assistant could say.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompletionParseError means the completion collaborator produced output
// that does not fit the decision schema. The turn is aborted without any
// state mutation and the caller decides whether to retry.
type CompletionParseError struct {
	Raw string
	Err error
}

func (e *CompletionParseError) Error() string {
	return fmt.Sprintf("completion output not parseable as a decision: %v", e.Err)
}

func (e *CompletionParseError) Unwrap() error { return e.Err }

// RoutingLoopError means a cycle of hand-over connections kept rerouting the
// same user input past the configured bound.
type RoutingLoopError struct {
	Goal  string
	Depth int
}

func (e *RoutingLoopError) Error() string {
	return fmt.Sprintf("hand-over recursion exceeded %d traversals at goal %q", e.Depth, e.Goal)
}

// UnknownConnectionError means the decision proposed a route label that is
// not reachable from the active goal. The orchestrator downgrades it to
// out-of-scope handling; it is exported for collaborator implementations
// that want to surface it themselves.
type UnknownConnectionError struct {
	Goal  string
	Route string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("goal %q has no connection to %q", e.Goal, e.Route)
}
