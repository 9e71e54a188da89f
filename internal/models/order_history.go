package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusHistory описывает одну запись журнала переходов заказа.
// Записи создаются ровно один раз на переход и никогда не изменяются.
// ActorID равен nil для системных переходов (подтверждение оплаты и т.п.).
type OrderStatusHistory struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"order_id"`
	Status    string     `db:"status" json:"status"`
	Note      *string    `db:"note" json:"note,omitempty"`
	ActorID   *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole string     `db:"actor_role" json:"actor_role"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
