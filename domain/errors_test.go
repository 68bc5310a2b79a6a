package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelsMatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("reserve slot: %w", ErrSlotUnavailable)
	if !errors.Is(wrapped, ErrSlotUnavailable) {
		t.Fatal("expected wrapped error to match ErrSlotUnavailable")
	}
	if !IsConflict(wrapped) {
		t.Fatal("expected wrapped error to be a conflict")
	}
	if wrapped.Error() != "reserve slot: slot unavailable" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestTransitionErrorMatchesByKind(t *testing.T) {
	err := TransitionError{Kind: KindAlreadyFinalized, Msg: "session 42 already completed"}
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatal("expected kind match against ErrAlreadyFinalized")
	}
	if errors.Is(err, ErrInvalidTransition) {
		t.Fatal("did not expect match against ErrInvalidTransition")
	}
}

func TestExternalServiceErrorKeepsCode(t *testing.T) {
	cause := errors.New("card declined")
	err := error(&ExternalServiceError{Op: "authorize", Code: "card_declined", Err: cause})

	if !IsExternal(err) {
		t.Fatal("expected external error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be preserved")
	}
	if err.Error() != "authorize failed (card_declined): card declined" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestInsufficientBalanceMessage(t *testing.T) {
	err := InsufficientBalanceError{Currency: "usd", Requested: 10000, Available: 5000}
	if !IsInsufficientBalance(err) {
		t.Fatal("expected insufficient balance error")
	}
	if err.Error() != "insufficient balance: requested 10000 usd, available 5000 usd" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
