package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeBadArguments, "invalid duration: %s", "7")

	if err.Code != ErrCodeBadArguments {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeBadArguments)
	}

	if err.Message != "invalid duration: 7" {
		t.Errorf("Message = %v, want %v", err.Message, "invalid duration: 7")
	}

	expected := "BAD_ARGUMENTS: invalid duration: 7"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected token")
	err := Wrap(ErrCodeParse, cause, "score line 3")

	if err.Code != ErrCodeParse {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeParse)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	if got := err.Error(); got != "PARSE_ERROR: score line 3: unexpected token" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeTooManyTicks, "test"),
			code:     ErrCodeTooManyTicks,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeTooManyTicks, "test"),
			code:     ErrCodeNoStem,
			expected: false,
		},
		{
			name:     "outermost code wins",
			err:      Wrap(ErrCodeInvalidConfiguration, New(ErrCodeBadArguments, "inner"), "outer"),
			code:     ErrCodeInvalidConfiguration,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("format: %w", New(ErrCodeNoYValues, "inner")),
			code:     ErrCodeNoYValues,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeBadArguments,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeBadArguments,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeNoModifierContext, "test"),
			expected: ErrCodeNoModifierContext,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeBadArguments, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsSequencing(t *testing.T) {
	if !IsSequencing(New(ErrCodeUnformattedNote, "x")) {
		t.Error("UNFORMATTED_NOTE should be a sequencing error")
	}
	if !IsSequencing(New(ErrCodeNoYValues, "x")) {
		t.Error("NO_Y_VALUES should be a sequencing error")
	}
	if IsSequencing(New(ErrCodeBadArguments, "x")) {
		t.Error("BAD_ARGUMENTS is not a sequencing error")
	}
}
