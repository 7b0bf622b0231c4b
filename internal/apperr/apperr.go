// Package apperr defines the error kinds surfaced across store, pipeline
// and API boundaries. Stores wrap database failures with Durable; cache
// failures never become errors at all.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — unknown world, item, or world/DC token. Surfaced as 404.
	ErrNotFound = errors.New("not found")

	// ErrForbidden — missing or unknown API key. Surfaced as 403.
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest — schema-invalid upload. Surfaced as 400.
	ErrBadRequest = errors.New("bad request")

	// ErrCancelled — upstream cancellation or timeout. Surfaced as 504.
	ErrCancelled = errors.New("cancelled")
)

// Durable wraps a persistent-write failure. Logged and surfaced as 500;
// callers own any retry policy.
func Durable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// BadRequest annotates a validation failure with a short diagnostic.
func BadRequest(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, detail)
}

// NotFound annotates a lookup failure with the missing token.
func NotFound(detail string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, detail)
}
