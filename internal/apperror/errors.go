// Package apperror defines the error taxonomy shared by the repository,
// service, and transport layers. Handlers translate these sentinels to HTTP
// status codes; raw storage errors never cross the service boundary.
package apperror

import "errors"

var (
	// ErrValidation marks a request missing or malforming a required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both a genuinely absent resource and a resource the
	// caller is not allowed to see. The two are deliberately
	// indistinguishable so conversation existence never leaks.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is reserved for policy denials distinct from participant
	// checks. Participant failures surface as ErrNotFound.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate reports a unique-index collision. The conversation
	// get-or-create path handles it internally; it is never surfaced.
	ErrDuplicate = errors.New("duplicate")

	// ErrInternal wraps unexpected persistence or runtime failures.
	ErrInternal = errors.New("internal error")
)
