package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeCodeExists  = errors.New("employee code already exists")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidEmployeeCode = errors.New("invalid employee code format")
	ErrUnauthorized        = errors.New("unauthorized to access this employee")
	ErrEmptyBatch          = errors.New("no employee ids given")
)
