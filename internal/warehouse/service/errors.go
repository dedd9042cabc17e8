package service

import "errors"

var (
	// ErrItemNotFound is returned when no item exists for the requested
	// (model, size) pair.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotAvailable is returned when an item's available_count is
	// zero at reservation time.
	ErrItemNotAvailable = errors.New("item not available")

	// ErrOrderItemNotFound is returned when no order_items row exists for
	// the requested order_item_uid.
	ErrOrderItemNotFound = errors.New("order item not found")

	// ErrInvalidRequest is returned when request data is nil or incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)
