package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/artmarket/handmade-backend/internal/models"
)

// ReturnRepository отвечает за работу с заявками на возврат.
type ReturnRepository struct {
	db *sqlx.DB
}

func NewReturnRepository(db *sqlx.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

func (r *ReturnRepository) Create(ctx context.Context, ret *models.Return) error {
	query := `
		INSERT INTO returns (id, order_id, requester_id, reason, description, evidence, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		ret.ID, ret.OrderID, ret.RequesterID, ret.Reason, ret.Description, ret.Evidence, ret.Status,
	).Scan(&ret.CreatedAt, &ret.UpdatedAt); err != nil {
		return fmt.Errorf("return repository: create %w", err)
	}
	return nil
}

func (r *ReturnRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.GetContext(ctx, &ret, `SELECT * FROM returns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReturnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("return repository: get by id %w", err)
	}
	return &ret, nil
}

// GetActiveByOrderID возвращает незавершённую заявку на возврат по заказу.
func (r *ReturnRepository) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.GetContext(ctx, &ret, `
		SELECT * FROM returns
		WHERE order_id = $1 AND status NOT IN ('rejected', 'refund_processed')
		ORDER BY created_at DESC LIMIT 1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReturnNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("return repository: get active by order %w", err)
	}
	return &ret, nil
}

// ListByOrder возвращает все заявки на возврат по заказу, новые первыми.
func (r *ReturnRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Return, error) {
	var returns []models.Return
	err := r.db.SelectContext(ctx, &returns, `
		SELECT * FROM returns WHERE order_id = $1 ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("return repository: list by order %w", err)
	}
	return returns, nil
}

// ListByUser возвращает заявки, где пользователь является заявителем
// либо стороной заказа.
func (r *ReturnRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Return, error) {
	var returns []models.Return
	err := r.db.SelectContext(ctx, &returns, `
		SELECT rt.* FROM returns rt
		JOIN orders o ON rt.order_id = o.id
		WHERE rt.requester_id = $1 OR o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY rt.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("return repository: list by user %w", err)
	}
	return returns, nil
}

// Save обновляет статус и поля решения заявки на возврат.
func (r *ReturnRepository) Save(ctx context.Context, ret *models.Return) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE returns SET status = $2, refund_amount = $3, refund_reason = $4,
			approver_id = $5, updated_at = NOW()
		WHERE id = $1
	`, ret.ID, ret.Status, ret.RefundAmount, ret.RefundReason, ret.ApproverID)
	if err != nil {
		return fmt.Errorf("return repository: save %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("return repository: save rows affected %w", err)
	}
	if affected == 0 {
		return ErrReturnNotFound
	}
	return nil
}
