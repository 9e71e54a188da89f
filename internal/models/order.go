package models

import (
	"time"

	"github.com/google/uuid"
)

// Способы оплаты заказа
const (
	PaymentMethodCard           = "card"
	PaymentMethodSBP            = "sbp"
	PaymentMethodWallet         = "wallet"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// ValidPaymentMethods список валидных способов оплаты
var ValidPaymentMethods = map[string]struct{}{
	PaymentMethodCard:           {},
	PaymentMethodSBP:            {},
	PaymentMethodWallet:         {},
	PaymentMethodCashOnDelivery: {},
}

// Order описывает заказ покупателя у мастера.
// Все денежные суммы хранятся в копейках.
type Order struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Number            string     `db:"number" json:"number"`
	BuyerID           uuid.UUID  `db:"buyer_id" json:"buyer_id"`
	SellerID          uuid.UUID  `db:"seller_id" json:"seller_id"`
	Status            string     `db:"status" json:"status"`
	Subtotal          int64      `db:"subtotal" json:"subtotal"`
	Tax               int64      `db:"tax" json:"tax"`
	ShippingCost      int64      `db:"shipping_cost" json:"shipping_cost"`
	Discount          int64      `db:"discount" json:"discount"`
	Total             int64      `db:"total" json:"total"`
	PaymentMethod     string     `db:"payment_method" json:"payment_method"`
	Paid              bool       `db:"paid" json:"paid"`
	TrackingNumber    *string    `db:"tracking_number" json:"tracking_number,omitempty"`
	TrackingURL       *string    `db:"tracking_url" json:"tracking_url,omitempty"`
	EstimatedDelivery *time.Time `db:"estimated_delivery" json:"estimated_delivery,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem описывает позицию заказа. Состав заказа неизменяем после оформления.
type OrderItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	Title     string    `db:"title" json:"title"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
}

// Clone возвращает копию заказа. Команды жизненного цикла никогда не изменяют
// загруженный заказ на месте: сначала строится копия, затем она сохраняется.
func (o *Order) Clone() *Order {
	clone := *o
	if o.TrackingNumber != nil {
		v := *o.TrackingNumber
		clone.TrackingNumber = &v
	}
	if o.TrackingURL != nil {
		v := *o.TrackingURL
		clone.TrackingURL = &v
	}
	if o.EstimatedDelivery != nil {
		v := *o.EstimatedDelivery
		clone.EstimatedDelivery = &v
	}
	if o.Notes != nil {
		v := *o.Notes
		clone.Notes = &v
	}
	if o.Items != nil {
		clone.Items = make([]OrderItem, len(o.Items))
		copy(clone.Items, o.Items)
	}
	return &clone
}
