package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "formatted message",
			err:  New(ErrCodeDuplicateID, "duplicate record id %q", "5"),
			want: `DUPLICATE_ID: duplicate record id "5"`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, io.ErrUnexpectedEOF, "fetch hierarchy"),
			want: "NETWORK_ERROR: fetch hierarchy: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeStructural, io.EOF, "edge e1")

	if errors.Unwrap(err) != io.EOF {
		t.Errorf("Unwrap() = %v, want io.EOF", errors.Unwrap(err))
	}
	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is does not see the cause")
	}

	var coded *Error
	outer := fmt.Errorf("layout: %w", err)
	if !As(outer, &coded) || coded.Code != ErrCodeStructural {
		t.Errorf("As() through fmt.Errorf = %v", coded)
	}
}

// Every classifier is checked against the same inputs so a code that
// drifts between them shows up in one row.
func TestClassifiers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		soft     bool
		userText string
	}{
		{
			name:     "empty input",
			err:      New(ErrCodeEmptyInput, "no departments"),
			code:     ErrCodeEmptyInput,
			soft:     true,
			userText: "no departments",
		},
		{
			name:     "structural behind fmt wrap",
			err:      fmt.Errorf("flatten: %w", New(ErrCodeStructural, "edge references unknown node %q", "9")),
			code:     ErrCodeStructural,
			userText: `edge references unknown node "9"`,
		},
		{
			name:     "name validation",
			err:      New(ErrCodeInvalidName, "name is empty"),
			code:     ErrCodeInvalidName,
			userText: "name is empty",
		},
		{
			name:     "uncoded",
			err:      io.ErrClosedPipe,
			userText: "io: read/write on closed pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) = true")
			}
			if got := IsSoft(tt.err); got != tt.soft {
				t.Errorf("IsSoft() = %v, want %v", got, tt.soft)
			}
			if got := UserMessage(tt.err); got != tt.userText {
				t.Errorf("UserMessage() = %q, want %q", got, tt.userText)
			}
		})
	}
}

func TestNilErrors(t *testing.T) {
	if Is(nil, ErrCodeEmptyInput) || IsSoft(nil) {
		t.Error("nil matched a code")
	}
	if GetCode(nil) != "" {
		t.Errorf("GetCode(nil) = %q", GetCode(nil))
	}
}
