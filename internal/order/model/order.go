package model

// Status values an Order row can hold. Transitions only PAID -> CANCELED.
const (
	StatusPaid     = "PAID"
	StatusCanceled = "CANCELED"
)

// Order is the row owned by this service, linking a purchase to the
// Warehouse order-item instance that backs it.
type Order struct {
	OrderUID string
	ItemUID  string
	UserUID  string
	Status   string
	Date     string
}

// PurchaseRequest is the body of POST /api/v1/orders/{user_uid}.
type PurchaseRequest struct {
	Model string `json:"model" validate:"required,notblank"`
	Size  string `json:"size" validate:"required,notblank"`
}

// PurchaseResponse is the response of POST /api/v1/orders/{user_uid}.
type PurchaseResponse struct {
	OrderUID string `json:"orderUid"`
}

// OrderResponse is a single order as returned by the list/get endpoints.
type OrderResponse struct {
	OrderUID string `json:"orderUid"`
	ItemUID  string `json:"itemUid"`
	UserUID  string `json:"userUid"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// WarrantyRequest is the body of POST /api/v1/orders/{order_uid}/warranty.
type WarrantyRequest struct {
	Reason string `json:"reason" validate:"required,notblank"`
}

// WarrantyResponse is the response of POST /api/v1/orders/{order_uid}/warranty.
type WarrantyResponse struct {
	Decision     string `json:"decision"`
	WarrantyDate string `json:"warrantyDate"`
}

// ToResponse converts an Order to its wire representation.
func ToResponse(o *Order) OrderResponse {
	return OrderResponse{OrderUID: o.OrderUID, ItemUID: o.ItemUID, UserUID: o.UserUID, Status: o.Status, Date: o.Date}
}
