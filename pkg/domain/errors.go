package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionBusy is returned when the session lock could not be acquired in time.
	// Callers should retry with backoff.
	ErrSessionBusy = errors.New("session busy")

	// ErrExecutionFailed is the opaque error reported when a task body fails.
	ErrExecutionFailed = errors.New("task execution failed")
)

// DuplicateWorkflowError is returned when a workflow name is registered twice.
type DuplicateWorkflowError struct {
	Workflow string
}

func (e *DuplicateWorkflowError) Error() string {
	return fmt.Sprintf("workflow %q is already registered", e.Workflow)
}

// UnknownWorkflowError is returned when a lookup names no registered workflow.
type UnknownWorkflowError struct {
	Workflow string
}

func (e *UnknownWorkflowError) Error() string {
	return fmt.Sprintf("unknown workflow %q", e.Workflow)
}

// UnknownStageError is returned when a stage name does not exist in the workflow.
type UnknownStageError struct {
	Workflow string
	Stage    string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("workflow %q has no stage %q", e.Workflow, e.Stage)
}

// UnknownTaskError is returned when no stage of the workflow defines the task.
type UnknownTaskError struct {
	Workflow string
	Task     string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("workflow %q has no task %q", e.Workflow, e.Task)
}

// InvalidTransitionError covers both malformed graphs at registration
// and moves the graph does not allow at runtime.
type InvalidTransitionError struct {
	Workflow string
	From     string
	To       string
	Reason   string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("workflow %q: invalid transition %q -> %q: %s", e.Workflow, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("workflow %q: invalid transition %q -> %q", e.Workflow, e.From, e.To)
}

// InvalidTaskSchemaError is returned when a stage's task set or a parameter schema is malformed.
type InvalidTaskSchemaError struct {
	Workflow string
	Stage    string
	Task     string
	Reason   string
}

func (e *InvalidTaskSchemaError) Error() string {
	return fmt.Sprintf("workflow %q stage %q task %q: %s", e.Workflow, e.Stage, e.Task, e.Reason)
}

// UnsatisfiableEntryError is returned when the entry stage has prerequisites an empty session cannot meet.
type UnsatisfiableEntryError struct {
	Workflow      string
	Stage         string
	Prerequisites []string
}

func (e *UnsatisfiableEntryError) Error() string {
	return fmt.Sprintf("workflow %q: entry stage %q requires %s, which no new session can satisfy",
		e.Workflow, e.Stage, strings.Join(e.Prerequisites, ", "))
}

// TaskNotAvailableError is returned when a task exists but not in the session's current stage.
type TaskNotAvailableError struct {
	Task      string
	Stage     string
	Available []string
}

func (e *TaskNotAvailableError) Error() string {
	return fmt.Sprintf("task %q is not available in stage %q", e.Task, e.Stage)
}

// NoPendingRequestError is returned for an answer when nothing is pending.
type NoPendingRequestError struct {
	SessionID string
}

func (e *NoPendingRequestError) Error() string {
	return fmt.Sprintf("session %q has no pending request to answer", e.SessionID)
}

// ParameterTypeError is returned when a supplied value cannot be coerced to the declared type.
type ParameterTypeError struct {
	Parameter string
	Expected  string
	Value     any
	Reason    string
}

func (e *ParameterTypeError) Error() string {
	msg := fmt.Sprintf("parameter %q: expected %s, got %T (%v)", e.Parameter, e.Expected, e.Value, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
