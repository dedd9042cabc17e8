package service

import "errors"

var (
	// ErrOrderNotFound is returned when no order row exists for an order_uid.
	ErrOrderNotFound = errors.New("order not found")
	// ErrItemNotFound is returned when Warehouse has no item for the requested model/size.
	ErrItemNotFound = errors.New("item not found")
	// ErrItemNotAvailable is returned when Warehouse has no stock left.
	ErrItemNotAvailable = errors.New("item not available")
)
