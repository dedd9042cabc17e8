package service

import "errors"

var (
	// ErrWarrantyNotFound is returned when no warranty row exists for an item_uid.
	ErrWarrantyNotFound = errors.New("warranty not found")
	// ErrInvalidRequest is returned when the request body fails validation.
	ErrInvalidRequest = errors.New("invalid request")
)
