package platform

import "github.com/google/uuid"

// NewUUID mints a fresh identifier, used for order_uid, order_item_uid and
// item_uid generation across all four services.
func NewUUID() string {
	return uuid.NewString()
}

// ParseUUID validates s is a canonical UUID string, returning the
// validation error the handler layer maps to a 400 bad-uid response.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
