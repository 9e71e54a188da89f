package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Типы споров
const (
	DisputeTypeNotReceived    = "not_received"
	DisputeTypeDamaged        = "damaged"
	DisputeTypeNotAsDescribed = "not_as_described"
	DisputeTypeOther          = "other"
)

// ValidDisputeTypes список валидных типов споров
var ValidDisputeTypes = map[string]struct{}{
	DisputeTypeNotReceived:    {},
	DisputeTypeDamaged:        {},
	DisputeTypeNotAsDescribed: {},
	DisputeTypeOther:          {},
}

// Dispute описывает спор по заказу.
type Dispute struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	OrderID       uuid.UUID      `db:"order_id" json:"order_id"`
	ComplainantID uuid.UUID      `db:"complainant_id" json:"complainant_id"`
	Type          string         `db:"type" json:"type"`
	Reason        string         `db:"reason" json:"reason"`
	Evidence      pq.StringArray `db:"evidence" json:"evidence,omitempty"`
	Status        string         `db:"status" json:"status"`
	Resolution    *string        `db:"resolution" json:"resolution,omitempty"`
	ResolvedAt    *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
