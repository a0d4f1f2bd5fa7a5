package api

import "testing"

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without param",
			err:  NewServerError("backend exploded"),
			want: "server_error: backend exploded",
		},
		{
			name: "with param",
			err:  NewInvalidRequestError("max_tokens", "must be positive"),
			want: "invalid_request: must be positive (param: max_tokens)",
		},
		{
			name: "not found",
			err:  NewNotFoundError("no such model"),
			want: "not_found: no such model",
		},
		{
			name: "too many requests",
			err:  NewTooManyRequestsError("slow down"),
			want: "too_many_requests: slow down",
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

func TestConstructorTypes(t *testing.T) {
	if NewServerError("x").Type != ErrorTypeServerError {
		t.Error("NewServerError type mismatch")
	}
	if NewModelError("x").Type != ErrorTypeModelError {
		t.Error("NewModelError type mismatch")
	}
	if NewInvalidRequestError("p", "x").Param != "p" {
		t.Error("NewInvalidRequestError param not set")
	}
}
