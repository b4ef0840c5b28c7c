package errors

import (
	"unicode"
)

// MaxRequestIDLength bounds caller-supplied request identifiers.
const MaxRequestIDLength = 128

// ValidateRequestID validates a caller-supplied job identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters (identifiers are echoed into logs and frames)
//   - Maximum length of MaxRequestIDLength bytes
func ValidateRequestID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRequest, "requestId cannot be empty")
	}

	if len(id) > MaxRequestIDLength {
		return New(ErrCodeInvalidRequest, "requestId too long (max %d characters)", MaxRequestIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRequest, "requestId contains invalid control characters")
		}
	}

	return nil
}

// ValidateDocumentSize rejects empty payloads and payloads above limit bytes.
// A limit of zero or less disables the upper bound.
func ValidateDocumentSize(size, limit int) error {
	if size == 0 {
		return New(ErrCodeInvalidInput, "document is empty")
	}
	if limit > 0 && size > limit {
		return New(ErrCodeInvalidInput, "document too large (%d bytes, max %d)", size, limit)
	}
	return nil
}
