package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxDimension bounds the width and height of any render request or decoded
// image, keeping a single RGBA buffer at or below 64 MiB.
const MaxDimension = 4096

// ValidateDimensions validates a pixel size for rendering or decoding.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidRequest, "dimensions must be positive, got %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return New(ErrCodeInvalidRequest, "dimensions %dx%d exceed the maximum of %d", width, height, MaxDimension)
	}
	return nil
}

// ValidateRandomness validates the randomness influence of a render request.
func ValidateRandomness(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return New(ErrCodeInvalidRequest, "randomness must be within [0, 1], got %v", r)
	}
	return nil
}

// ValidateReference validates a submitted image reference for safety.
// It accepts ipfs:// URIs, bare CIDs and http(s) URLs, and rejects
// anything containing control characters or path traversal.
//
// Validation rules:
//   - Reference cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes
func ValidateReference(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "image reference cannot be empty")
	}

	const maxRefLength = 500
	if len(ref) > maxRefLength {
		return New(ErrCodeInvalidInput, "image reference too long (max %d characters)", maxRefLength)
	}

	for _, r := range ref {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image reference contains invalid characters")
		}
	}

	if strings.Contains(ref, "..") {
		return New(ErrCodeInvalidPath, "image reference cannot contain path traversal sequences (..)")
	}

	if strings.Contains(ref, "\\") {
		return New(ErrCodeInvalidPath, "image reference cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
