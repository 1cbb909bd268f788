package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type codedStub struct{ code ErrorCode }

func (c *codedStub) Error() string        { return "stub failure" }
func (c *codedStub) ErrorCode() ErrorCode { return c.code }

func TestNew(t *testing.T) {
	err := New(ErrCodeTaskUnknown, "test error message")

	if err.Code != ErrCodeTaskUnknown {
		t.Errorf("expected code %s, got %s", ErrCodeTaskUnknown, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeTaskCycle, "cycle"),
			wantCode: "TASK-002",
			wantMsg:  "cycle",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileWriteFailed, "write failed", fmt.Errorf("permission denied")),
			wantCode: "IO-003",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}
			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestionsAndDocs(t *testing.T) {
	err := New(ErrCodeExecToolNotFound, "no tool").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithDocs("https://example.org/docs")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	out := err.Error()
	for _, want := range []string{"Suggestions:", "• second", "Documentation: https://example.org/docs"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTaskUnknown, "TASK"},
		{ErrCodeRewriteAmbiguousMatch, "REWRITE"},
		{ErrCodeFileLocked, "IO"},
		{ErrorCode("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := tt.code.Category(); got != tt.want {
			t.Errorf("Category(%s) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", &codedStub{code: ErrCodeRewriteMissingAnchor})

	code, ok := CodeOf(wrapped)
	if !ok || code != ErrCodeRewriteMissingAnchor {
		t.Errorf("CodeOf() = %q, %v", code, ok)
	}

	if _, ok := CodeOf(fmt.Errorf("plain")); ok {
		t.Error("CodeOf should not find a code on a plain error")
	}
}

func TestDescribe(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Describe(nil) != nil {
			t.Error("Describe(nil) should be nil")
		}
	})

	t.Run("uncoded", func(t *testing.T) {
		if Describe(fmt.Errorf("plain")) != nil {
			t.Error("Describe should return nil for uncoded errors")
		}
	})

	t.Run("existing build error", func(t *testing.T) {
		be := New(ErrCodeConfigInvalid, "bad")
		if got := Describe(fmt.Errorf("wrap: %w", be)); got != be {
			t.Error("Describe should return the wrapped BuildError")
		}
	})

	t.Run("coded domain error", func(t *testing.T) {
		stub := &codedStub{code: ErrCodeTaskUnknown}
		got := Describe(stub)
		if got == nil {
			t.Fatal("expected a BuildError")
		}
		if got.Code != ErrCodeTaskUnknown {
			t.Errorf("code = %s", got.Code)
		}
		if len(got.Suggestions) == 0 {
			t.Error("expected suggestions for unknown task")
		}
		if !errors.Is(got, stub) {
			t.Error("described error should unwrap to the original")
		}
	})
}

func TestManifestConstructors(t *testing.T) {
	notFound := NewManifestNotFoundError("pressbuild.yaml")
	if notFound.Code != ErrCodeConfigNotFound || !strings.Contains(notFound.Message, "pressbuild.yaml") {
		t.Errorf("unexpected not found error: %v", notFound)
	}

	invalid := NewManifestInvalidError("no tasks")
	if invalid.Code != ErrCodeConfigInvalid {
		t.Errorf("unexpected code %s", invalid.Code)
	}

	cause := fmt.Errorf("yaml: line 3")
	unmarshal := NewManifestUnmarshalError("pressbuild.yaml", cause)
	if !errors.Is(unmarshal, cause) {
		t.Error("unmarshal error should wrap its cause")
	}
}
