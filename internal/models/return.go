package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Причины возврата
const (
	ReturnReasonDefective      = "defective"
	ReturnReasonWrongItem      = "wrong_item"
	ReturnReasonNotAsDescribed = "not_as_described"
	ReturnReasonChangedMind    = "changed_mind"
	ReturnReasonOther          = "other"
)

// ValidReturnReasons список валидных причин возврата
var ValidReturnReasons = map[string]struct{}{
	ReturnReasonDefective:      {},
	ReturnReasonWrongItem:      {},
	ReturnReasonNotAsDescribed: {},
	ReturnReasonChangedMind:    {},
	ReturnReasonOther:          {},
}

// Return описывает заявку на возврат товара.
// RefundAmount хранится в копейках и не может превышать сумму заказа.
type Return struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	OrderID      uuid.UUID      `db:"order_id" json:"order_id"`
	RequesterID  uuid.UUID      `db:"requester_id" json:"requester_id"`
	Reason       string         `db:"reason" json:"reason"`
	Description  *string        `db:"description" json:"description,omitempty"`
	Evidence     pq.StringArray `db:"evidence" json:"evidence,omitempty"`
	Status       string         `db:"status" json:"status"`
	RefundAmount *int64         `db:"refund_amount" json:"refund_amount,omitempty"`
	RefundReason *string        `db:"refund_reason" json:"refund_reason,omitempty"`
	ApproverID   *uuid.UUID     `db:"approver_id" json:"approver_id,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
