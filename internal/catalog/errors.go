package catalog

import "errors"

// Sentinel errors returned by Store operations. Callers match them with errors.Is.
var (
	// ErrValidation is returned when required input is missing or invalid.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when no book matches the identifier, title or ISBN.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidStateOrNotFound is returned by Borrow and Return when the book does not
	// exist or is not in the state the transition starts from. The two causes are not
	// told apart.
	ErrInvalidStateOrNotFound = errors.New("book not found or invalid lending state")
)
