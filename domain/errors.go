package domain

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s conflict", e.Resource)
	}
	return "conflict"
}

// ExternalServiceError wraps a payment processor or network failure. Code keeps
// the processor's own error code for diagnostics.
type ExternalServiceError struct {
	Op   string
	Code string
	Err  error
}

func (e *ExternalServiceError) Error() string {
	msg := "external service error"
	if e.Op != "" {
		msg = e.Op + " failed"
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type InsufficientBalanceError struct {
	Currency  string
	Requested int64
	Available int64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d %s, available %d %s",
		e.Requested, e.Currency, e.Available, e.Currency)
}

// AuthorizationError means the caller is not a party allowed to act on the resource.
type AuthorizationError struct {
	Msg string
}

func (e AuthorizationError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

type TransitionKind string

const (
	KindInvalidTransition TransitionKind = "invalid_transition"
	KindAlreadyFinalized  TransitionKind = "already_finalized"
)

type TransitionError struct {
	Kind TransitionKind
	Msg  string
}

func (e TransitionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

// Is matches any TransitionError of the same kind, so callers can compare
// against ErrInvalidTransition or ErrAlreadyFinalized regardless of message.
func (e TransitionError) Is(target error) bool {
	t, ok := target.(TransitionError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidRange     = ValidationError{Field: "end_time", Msg: "end time must be after start time"}
	ErrPastDate         = ValidationError{Field: "date", Msg: "date is in the past"}
	ErrOverlap          = ConflictError{Resource: "slot", Msg: "slot overlaps an existing slot"}
	ErrSlotBooked       = ConflictError{Resource: "slot", Msg: "slot is booked"}
	ErrSlotUnavailable  = ConflictError{Resource: "slot", Msg: "slot unavailable"}
	ErrDuplicatePayment = ConflictError{Resource: "payment", Msg: "an active payment already exists for this session"}
	ErrNoPayoutAccount  = ConflictError{Resource: "mentor", Msg: "mentor has no connected payout account"}
	ErrNotCaptured      = ConflictError{Resource: "payment", Msg: "processor has not captured the payment"}

	ErrInvalidTransition = TransitionError{Kind: KindInvalidTransition, Msg: "invalid state transition"}
	ErrAlreadyFinalized  = TransitionError{Kind: KindAlreadyFinalized, Msg: "session already finalized"}
)

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsExternal(err error) bool {
	var target *ExternalServiceError
	return errors.As(err, &target)
}

func IsInsufficientBalance(err error) bool {
	var target InsufficientBalanceError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target AuthorizationError
	return errors.As(err, &target)
}

func IsTransition(err error) bool {
	var target TransitionError
	return errors.As(err, &target)
}
