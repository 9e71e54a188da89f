package dto

import (
	"github.com/artmarket/handmade-backend/internal/models"
)

// ErrorResponse is a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse is a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse represents the result of registration or login
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

// OrderResponse represents an order with its status history
type OrderResponse struct {
	*models.Order
	History []models.OrderStatusHistory `json:"history,omitempty"`
}

// NewOrderResponse creates an OrderResponse from components
func NewOrderResponse(order *models.Order, history []models.OrderStatusHistory) *OrderResponse {
	return &OrderResponse{
		Order:   order,
		History: history,
	}
}

// ListResponse wraps a paginated collection
type ListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// UnreadCountResponse reports the number of unread notifications
type UnreadCountResponse struct {
	Count int `json:"count"`
}
