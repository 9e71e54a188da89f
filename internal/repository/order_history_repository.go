package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/artmarket/handmade-backend/internal/models"
)

// OrderHistoryRepository читает журнал статусов заказа.
// Таблица append-only: записи добавляются только внутри транзакций
// OrderRepository, методов обновления и удаления не существует.
type OrderHistoryRepository struct {
	db *sqlx.DB
}

func NewOrderHistoryRepository(db *sqlx.DB) *OrderHistoryRepository {
	return &OrderHistoryRepository{db: db}
}

// ListByOrder возвращает журнал переходов в хронологическом порядке.
func (r *OrderHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := r.db.SelectContext(ctx, &history, `
		SELECT id, order_id, status, note, actor_id, actor_role, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order history repository: list by order %w", err)
	}
	return history, nil
}

// insertHistoryTx добавляет запись журнала внутри уже открытой транзакции.
func insertHistoryTx(ctx context.Context, tx *sqlx.Tx, entry *models.OrderStatusHistory) error {
	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, actor_id, actor_role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, entry.ID, entry.OrderID, entry.Status, entry.Note, entry.ActorID, entry.ActorRole).
		Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("order history repository: insert %w", err)
	}
	return nil
}
