package dto

import "time"

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// OrderItemRequest represents a single item of a new order
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	UnitPrice int64  `json:"unit_price"`
}

// CreateOrderRequest represents the request to place an order.
// All amounts are in minor currency units (kopecks).
type CreateOrderRequest struct {
	SellerID      string             `json:"seller_id" binding:"required"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	Tax           int64              `json:"tax"`
	ShippingCost  int64              `json:"shipping_cost"`
	Discount      int64              `json:"discount"`
	Notes         *string            `json:"notes"`
	Items         []OrderItemRequest `json:"items" binding:"required"`
}

// TransitionOrderRequest represents the request to move an order to a new status
type TransitionOrderRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note"`
}

// CancelOrderRequest represents the request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ShippingInfoRequest represents tracking details attached by the seller
type ShippingInfoRequest struct {
	TrackingNumber    *string    `json:"tracking_number"`
	TrackingURL       *string    `json:"tracking_url"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// OpenDisputeRequest represents the request to open a dispute on an order
type OpenDisputeRequest struct {
	Type     string   `json:"type" binding:"required"`
	Reason   string   `json:"reason" binding:"required"`
	Evidence []string `json:"evidence"`
}

// UpdateDisputeRequest represents the request to move a dispute to a new status
type UpdateDisputeRequest struct {
	Status     string  `json:"status" binding:"required"`
	Resolution *string `json:"resolution"`
}

// RequestReturnRequest represents the request to open a return on an order
type RequestReturnRequest struct {
	Reason      string   `json:"reason" binding:"required"`
	Description *string  `json:"description"`
	Evidence    []string `json:"evidence"`
}

// UpdateReturnRequest represents the decision on a return request.
// RefundAmount is required when moving to refund_processed.
type UpdateReturnRequest struct {
	Status       string  `json:"status" binding:"required"`
	Note         *string `json:"note"`
	RefundAmount *int64  `json:"refund_amount"`
}
