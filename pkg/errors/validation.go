package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds department names and search queries.
const maxNameLength = 256

// ValidateDepartmentName validates a department name before it is sent to
// the backend.
//
// The rules are conservative:
//   - No empty or whitespace-only names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateDepartmentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "department name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "department name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "department name contains invalid control characters")
		}
	}

	return nil
}

// ValidateSearchQuery validates a name filter for the hierarchy search.
// An empty query is valid and means "whole hierarchy".
func ValidateSearchQuery(q string) error {
	if q == "" {
		return nil
	}
	if len(q) > maxNameLength {
		return New(ErrCodeInvalidInput, "search query too long (max %d characters)", maxNameLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "search query contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateOutputPath validates a local output path given on the command line.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
