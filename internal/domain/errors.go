package domain

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrAuth                = errors.New("authentication failed")
	ErrForbidden           = errors.New("forbidden")
	ErrPersistence         = errors.New("persistence error")
	ErrOrderCreationFailed = errors.New("order creation failed")
)
