// Package services holds the integrity core: region validation and persistence, deletion
// dependency analysis, the cascading delete executor and the catalog operations that feed
// them.
package services

import (
	"errors"
	"fmt"

	"campus_map/internal/apperr"
	"campus_map/internal/repository"
)

// notFoundOr maps a missing row to a not-found error and wraps anything else as a store
// failure. Typed errors pass through untouched.
func notFoundOr(err error, what string) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	default:
		return apperr.Store(fmt.Sprintf("load %s", what), err)
	}
}

// storeErr wraps a failed store call unless it already carries a kind.
func storeErr(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Store(op, err)
}
