package errors

import (
	"strings"
	"testing"
)

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "job-1", false},
		{"valid uuid", "7c9e6679-7425-40de-944b-e07fc1f90ae7", false},
		{"valid unicode", "tâche-1", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxRequestIDLength+1), true},
		{"null byte", "job\x00", true},
		{"newline", "job\n1", true},
		{"tab", "job\t1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRequest) {
				t.Errorf("ValidateRequestID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidRequest)
			}
		})
	}
}

func TestValidateDocumentSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int
		wantErr bool
	}{
		{"empty", 0, 100, true},
		{"within limit", 10, 100, false},
		{"at limit", 100, 100, false},
		{"over limit", 101, 100, true},
		{"no limit", 1 << 30, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentSize(tt.size, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentSize(%d, %d) error = %v, wantErr %v", tt.size, tt.limit, err, tt.wantErr)
			}
		})
	}
}
