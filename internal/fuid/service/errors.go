package service

import "errors"

var (
	// ErrCompanyRequired is returned when a generate request has no company name.
	ErrCompanyRequired = errors.New("company name is required")

	// ErrProductRequired is returned when a generate request has no product name.
	ErrProductRequired = errors.New("product name is required")

	// ErrInvalidApprovalStatus is returned when a review decision names a status other
	// than approved, rejected or in-progress.
	ErrInvalidApprovalStatus = errors.New("status must be approved, rejected or in-progress")

	// ErrApplicationNotFound is returned when a review decision matches no application
	// and carries too little to record a new one.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrSemanticDisabled is returned by index operations when no semantic engine is configured.
	ErrSemanticDisabled = errors.New("semantic engine not configured")
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrCompanyRequired) ||
		errors.Is(err, ErrProductRequired) ||
		errors.Is(err, ErrInvalidApprovalStatus)
}
