package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/artmarket/handmade-backend/internal/models"
)

// DisputeRepository отвечает за работу со спорами.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (id, order_id, complainant_id, type, reason, evidence, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		d.ID, d.OrderID, d.ComplainantID, d.Type, d.Reason, d.Evidence, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// GetOpenByOrderID возвращает незакрытый спор по заказу, если он есть.
// Споры в терминальных статусах не учитываются: они не мешают открыть новый.
func (r *DisputeRepository) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes
		WHERE order_id = $1 AND status NOT IN ('resolved', 'closed')
		ORDER BY created_at DESC LIMIT 1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get open by order %w", err)
	}
	return &d, nil
}

// ListByOrder возвращает все споры по заказу, новые первыми.
func (r *DisputeRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE order_id = $1 ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by order %w", err)
	}
	return disputes, nil
}

// ListByUser возвращает споры, в которых пользователь выступает заявителем
// либо стороной заказа.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN orders o ON d.order_id = o.id
		WHERE d.complainant_id = $1 OR o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// UpdateStatus переводит спор в новый статус. resolution и resolvedAt
// заполняются только для терминальных статусов.
func (r *DisputeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolution *string, resolvedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, resolution = $3, resolved_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id, status, resolution, resolvedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: update status %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dispute repository: update status rows affected %w", err)
	}
	if affected == 0 {
		return ErrDisputeNotFound
	}
	return nil
}
