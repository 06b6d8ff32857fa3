package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestExitCodeForTypedAndPlainErrors(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("expected 0 for nil error, got %d", got)
	}
	if got := ExitCode(New(CodeKeyFormat, "bad key")); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(CodeBlocked, "blocked"))
	if got := ExitCode(wrapped); got != 16 {
		t.Fatalf("expected wrapped code 16, got %d", got)
	}
	if got := ExitCode(fmt.Errorf("plain")); got != 1 {
		t.Fatalf("expected internal code for plain error, got %d", got)
	}
}

func TestNetworkMapsDeadlineToTimeout(t *testing.T) {
	err := Network("fetch block", context.DeadlineExceeded)
	if err.Code != CodeNetworkTimeout {
		t.Fatalf("expected timeout code, got %d", err.Code)
	}
	err = Network("fetch block", fmt.Errorf("connection refused"))
	if err.Code != CodeNetworkTransport {
		t.Fatalf("expected transport code, got %d", err.Code)
	}
	if !Recoverable(err) {
		t.Fatal("expected network errors to be recoverable")
	}
	if Recoverable(New(CodeInputValidation, "bad nonce")) {
		t.Fatal("validation errors must not be recoverable")
	}
}
