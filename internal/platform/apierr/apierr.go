package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced at the API boundary. Routing/scoring strategy
// failures are recovered inside their fallback chains and never reach here;
// these codes cover whole-chain exhaustion and invalid caller state.
const (
	CodeRoutingFailure      = "routing_failure"
	CodeNoQuestionAvailable = "no_question_available"
	CodeInvalidAnswerState  = "invalid_answer_state"
	CodeScoringDegraded     = "scoring_degraded"
	CodeExternalUnavailable = "external_unavailable"
	CodeConversationLocked  = "conversation_locked"
	CodeNotFound            = "not_found"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func InvalidAnswerState(err error) *Error {
	return New(http.StatusConflict, CodeInvalidAnswerState, err)
}

func ConversationLocked(err error) *Error {
	return New(http.StatusConflict, CodeConversationLocked, err)
}

func RoutingFailure(err error) *Error {
	return New(http.StatusUnprocessableEntity, CodeRoutingFailure, err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func BadRequest(err error) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, err)
}

// Code extracts the stable code from err, or CodeInternal if err is not an
// *Error.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return CodeInternal
}

// Status extracts the HTTP status from err, defaulting to 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
