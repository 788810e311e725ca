package config

import (
	"fmt"
	"strings"
)

// ValidationResult accumulates every violation the validator finds.
// The validator never stops at the first error, so callers should
// always run every check and inspect the full Errors slice rather
// than treating validation as fail-fast.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// AddError records a fatal validation violation.
func (r *ValidationResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a non-fatal observation that does not block
// tabulation (e.g. a likely-typo candidate name).
func (r *ValidationResult) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Valid reports whether tabulation may proceed. Warnings never affect this.
func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Error implements the error interface so a ValidationResult can be
// returned directly wherever an error is expected (e.g. from a
// contest config loader).
func (r *ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	if len(r.Errors) == 1 {
		return fmt.Sprintf("contest configuration invalid: %s", r.Errors[0])
	}
	return fmt.Sprintf("contest configuration invalid (%d errors): %s", len(r.Errors), strings.Join(r.Errors, "; "))
}
