package service

import (
	"errors"
	"fmt"

	"github.com/iyhunko/product-catalog/internal/repository"
)

// ErrNotFound is returned when the requested product does not exist.
var ErrNotFound = repository.ErrNotFound

// MalformedInputError reports request data that could not be decoded or failed validation.
type MalformedInputError struct {
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Field, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// StorageError reports a failure of the product store other than a missing product.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s product: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}
