package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonTransport)
	if Reason(err) != ReasonTransport {
		t.Fatalf("expected reason %s, got %s", ReasonTransport, Reason(err))
	}
	if !HasReason(err, ReasonTransport) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonConnection)
	second := Wrap(first, ReasonTransport)
	if Reason(second) != ReasonConnection {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestNewCarriesReasonAndMessage(t *testing.T) {
	err := New(ReasonShutdown, "service terminated")
	if Reason(err) != ReasonShutdown {
		t.Fatalf("expected shutdown reason, got %s", Reason(err))
	}
	if err.Error() != "service terminated" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestReasonOnPlainError(t *testing.T) {
	if Reason(assertErr{}) != ReasonUnknown {
		t.Fatalf("expected unknown reason for plain error")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
