package domain

import (
	"context"
	"errors"
)

// Error codes carried in ErrorInfo.Code.
const (
	CodeUnknownWorkflow   = "unknown_workflow"
	CodeUnknownStage      = "unknown_stage"
	CodeUnknownTask       = "unknown_task"
	CodeTaskNotAvailable  = "task_not_available"
	CodeNoPendingRequest  = "no_pending_request"
	CodeParameterType     = "parameter_type"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidState      = "invalid_state_update"
	CodeInvalidRequest    = "invalid_request"
	CodeSessionNotFound   = "session_not_found"
	CodeSessionBusy       = "session_busy"
	CodeExecutionFailed   = "execution_failed"
	CodeTimeout           = "timeout"
	CodeInternal          = "internal"
)

// ErrorInfoFor maps an error returned by the engine to its agent-safe form.
// Unrecognized errors are reported as CodeInternal without their message.
func ErrorInfoFor(err error) *ErrorInfo {
	var (
		unknownWorkflow *UnknownWorkflowError
		unknownStage    *UnknownStageError
		unknownTask     *UnknownTaskError
		notAvailable    *TaskNotAvailableError
		noPending       *NoPendingRequestError
		typeErr         *ParameterTypeError
		transition      *InvalidTransitionError
	)

	switch {
	case err == nil:
		return nil
	case errors.As(err, &unknownWorkflow):
		return &ErrorInfo{Code: CodeUnknownWorkflow, Message: err.Error()}
	case errors.As(err, &unknownStage):
		return &ErrorInfo{Code: CodeUnknownStage, Message: err.Error()}
	case errors.As(err, &unknownTask):
		return &ErrorInfo{Code: CodeUnknownTask, Message: err.Error()}
	case errors.As(err, &notAvailable):
		return &ErrorInfo{
			Code:    CodeTaskNotAvailable,
			Message: err.Error(),
			Details: map[string]any{"stage": notAvailable.Stage, "available": notAvailable.Available},
		}
	case errors.As(err, &noPending):
		return &ErrorInfo{Code: CodeNoPendingRequest, Message: err.Error()}
	case errors.As(err, &typeErr):
		return &ErrorInfo{
			Code:    CodeParameterType,
			Message: err.Error(),
			Details: map[string]any{"parameter": typeErr.Parameter, "expected": typeErr.Expected, "value": typeErr.Value},
		}
	case errors.As(err, &transition):
		return &ErrorInfo{Code: CodeInvalidTransition, Message: err.Error()}
	case errors.Is(err, ErrSessionNotFound):
		return &ErrorInfo{Code: CodeSessionNotFound, Message: ErrSessionNotFound.Error()}
	case errors.Is(err, ErrSessionBusy):
		return &ErrorInfo{Code: CodeSessionBusy, Message: "session is busy, retry later"}
	case errors.Is(err, ErrExecutionFailed):
		return &ErrorInfo{Code: CodeExecutionFailed, Message: ErrExecutionFailed.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ErrorInfo{Code: CodeTimeout, Message: "request timed out"}
	default:
		return &ErrorInfo{Code: CodeInternal, Message: "internal error"}
	}
}

// ErrorResponse wraps err in a Response with StatusError.
func ErrorResponse(req Request, err error) *Response {
	return &Response{
		Status:    StatusError,
		SessionID: req.SessionID,
		Workflow:  req.Workflow,
		Error:     ErrorInfoFor(err),
	}
}
