package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if result := test.class.String(); result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"stream closed", ErrStreamClosed, true},
		{"record too large", ErrRecordTooLarge, true},
		{"eof", io.EOF, true},
		{"net closed", net.ErrClosed, true},
		{"op error", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid data", ErrInvalidData, false},
		{"checksum", ErrChecksumFailed, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"broken pipe", fmt.Errorf("write: broken pipe"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("connection test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsTransient(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"contract violation", ErrContractViolation, true},
		{"missing config", ErrMissingConfig, true},
		{"connection lost", ErrConnectionLost, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: ErrContractViolation}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsFatal(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid data", ErrInvalidData, true},
		{"parsing failed", ErrParsingFailed, true},
		{"checksum failed", ErrChecksumFailed, true},
		{"empty record", ErrEmptyRecord, true},
		{"wrapped checksum", fmt.Errorf("sentence: %w", ErrChecksumFailed), true},
		{"connection lost", ErrConnectionLost, false},
		{"plain error", errors.New("boom"), false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsInvalid(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(timeoutErr{}) {
		t.Error("net.Error with Timeout() should be a timeout")
	}
	if !IsTimeout(fmt.Errorf("read: %w", timeoutErr{})) {
		t.Error("wrapped net timeout should be a timeout")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be a timeout")
	}
	if IsTimeout(io.EOF) {
		t.Error("EOF is not a timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"stream closed", ErrStreamClosed, ErrorTransient},
		{"checksum", ErrChecksumFailed, ErrorInvalid},
		{"contract violation", ErrContractViolation, ErrorFatal},
		{"unknown", errors.New("something odd"), ErrorTransient},
		{"explicit class wins", WrapFatal(errors.New("connection refused"), "c", "m", "dial"), ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := Classify(test.err); result != test.expected {
				t.Errorf("expected %v, got %v", test.expected, result)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	original := errors.New("original error")
	ce := &ClassifiedError{
		Class:     ErrorTransient,
		Err:       original,
		Message:   "custom message",
		Component: "tcp-client",
		Operation: "serve",
	}

	if ce.Error() != "custom message" {
		t.Errorf("expected 'custom message', got %s", ce.Error())
	}
	if !errors.Is(ce, original) {
		t.Error("classified error should unwrap to original")
	}

	bare := &ClassifiedError{Class: ErrorInvalid, Err: original}
	if bare.Error() != "original error" {
		t.Errorf("expected fallback to wrapped message, got %s", bare.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}

	err := Wrap(io.EOF, "frame-assembler", "Pull", "read")
	expected := "frame-assembler.Pull: read failed: EOF"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, io.EOF) {
		t.Error("wrapped error should match io.EOF")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("base")
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrap(nil, "c", "m", "a") != nil {
				t.Fatal("wrapping nil should return nil")
			}
			err := test.wrap(base, "comp", "Op", "act")

			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatal("expected ClassifiedError")
			}
			if ce.Class != test.class {
				t.Errorf("expected class %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "comp" || ce.Operation != "Op" {
				t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
			}
			if !strings.Contains(err.Error(), "comp.Op: act failed: base") {
				t.Errorf("unexpected message %q", err.Error())
			}
			if !errors.Is(err, base) {
				t.Error("classified error should unwrap to base")
			}

			outer := fmt.Errorf("outer: %w", err)
			if Classify(outer) != test.class {
				t.Error("classification should survive further wrapping")
			}
		})
	}
}

func TestForwarders(t *testing.T) {
	e := New("x")
	if !Is(Join(e, io.EOF), io.EOF) {
		t.Error("Join/Is should forward to the standard library")
	}
	var ce *ClassifiedError
	if !As(WrapInvalid(e, "c", "m", "a"), &ce) {
		t.Error("As should forward to the standard library")
	}
}

func BenchmarkClassify(b *testing.B) {
	err := WrapTransient(&net.OpError{Op: "read", Err: timeoutErr{}}, "tcp-client", "serve", "read")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(err)
	}
}
