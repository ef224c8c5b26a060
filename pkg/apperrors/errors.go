package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidResponse     = errors.New("invalid response")
)
