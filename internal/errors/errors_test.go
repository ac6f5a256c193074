package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "package not found"},
			want: "package not found",
		},
		{
			name: "with cause",
			err:  &AppError{Code: ErrCodeInternal, Message: "query failed", Cause: errors.New("boom")},
			want: "query failed: boom",
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

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
		check    func(error) bool
	}{
		{"not found", NotFound("missing"), ErrCodeNotFound, IsNotFound},
		{"not foundf", NotFoundf("package %q missing", "p1"), ErrCodeNotFound, IsNotFound},
		{"conflict", Conflict("duplicate"), ErrCodeConflict, IsConflict},
		{"validation", Validation("bad input"), ErrCodeValidation, IsValidation},
		{"validationf", Validationf("bad %s", "field"), ErrCodeValidation, IsValidation},
		{"unauthorized", Unauthorized("no session"), ErrCodeUnauthorized, IsUnauthorized},
		{"forbidden", Forbidden("admin only"), ErrCodeForbidden, IsForbidden},
		{"unavailable", Unavailable("all backends failed"), ErrCodeUnavailable, IsUnavailable},
		{"internal", Internal("oops"), ErrCodeInternal, IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "invalid email")
	if GetField(err) != "email" {
		t.Errorf("GetField() = %q, want %q", GetField(err), "email")
	}
	if !IsValidation(err) {
		t.Error("ValidationField should produce a validation error")
	}
}

func TestWrap_NilError(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "msg") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "msg %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestWrapf_Formats(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrapf(cause, ErrCodeUnavailable, "fetching %s failed", "packages")
	if err.Message != "fetching packages failed" {
		t.Errorf("Message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should survive Wrapf")
	}
}

func TestGetCode_NonAppError(t *testing.T) {
	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode(plain error) = %q, want empty", code)
	}
	if code := GetCode(nil); code != "" {
		t.Errorf("GetCode(nil) = %q, want empty", code)
	}
}

func TestPredicates_MatchWrappedErrors(t *testing.T) {
	inner := NotFound("gone")
	outer := fmt.Errorf("context: %w", inner)
	if !IsNotFound(outer) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
}
