package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestCopiesMatchSentinel(t *testing.T) {
	err := fmt.Errorf("server info: %w", ErrInvalidProtocol.WithInternal(stdErrors.New("not json")))

	if !stdErrors.Is(err, ErrInvalidProtocol) {
		t.Fatal("expected wrapped copy to match ErrInvalidProtocol")
	}
	if stdErrors.Is(err, ErrTransientNetwork) {
		t.Fatal("did not expect match with ErrTransientNetwork")
	}
	if !IsInvalidProtocol(err) {
		t.Fatal("expected IsInvalidProtocol to be true")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient", err: ErrTransientNetwork.WithInternal(stdErrors.New("dial tcp")), want: true},
		{name: "wrapped transient", err: fmt.Errorf("fetch: %w", ErrTransientNetwork), want: true},
		{name: "protocol", err: ErrInvalidProtocol, want: false},
		{name: "rejected", err: ErrServerRejected, want: false},
		{name: "plain", err: stdErrors.New("plain"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrBadRequest.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if ErrBadRequest.Message != "Invalid request" {
		t.Fatal("expected sentinel message to remain unchanged")
	}
}
