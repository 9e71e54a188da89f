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

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrDisputeNotFound = errors.New("dispute not found")
	ErrReturnNotFound  = errors.New("return not found")
)

// OrderRepository отвечает за работу с заказами и их журналом статусов.
// Сохранение заказа и добавление записи журнала выполняются в одной
// транзакции: если заказ сохранён, запись журнала не может потеряться.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, number, buyer_id, seller_id, status,
	subtotal, tax, shipping_cost, discount, total,
	payment_method, paid, tracking_number, tracking_url, estimated_delivery,
	notes, created_at, updated_at
`

// Create сохраняет новый заказ вместе с позициями и первой записью журнала.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, number, buyer_id, seller_id, status,
			subtotal, tax, shipping_cost, discount, total,
			payment_method, paid, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		order.ID, order.Number, order.BuyerID, order.SellerID, order.Status,
		order.Subtotal, order.Tax, order.ShippingCost, order.Discount, order.Total,
		order.PaymentMethod, order.Paid, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, title, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.OrderID, item.ProductID, item.Title, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("order repository: create item %w", err)
		}
	}

	if err := insertHistoryTx(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID возвращает заказ по идентификатору вместе с позициями.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// GetByNumber возвращает заказ по человекочитаемому номеру.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	if err := r.db.GetContext(ctx, &order, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by number %w", err)
	}
	return &order, nil
}

// ListItems возвращает позиции заказа.
func (r *OrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	query := `SELECT id, order_id, product_id, title, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY title`
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("order repository: list items %w", err)
	}
	return items, nil
}

// ListByBuyer возвращает заказы покупателя.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, query, buyerID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by buyer %w", err)
	}
	return orders, nil
}

// ListBySeller возвращает заказы мастера.
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, query, sellerID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by seller %w", err)
	}
	return orders, nil
}

// Save обновляет изменяемые поля заказа без записи в журнал
// (прикрепление трек-номера, заметки).
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid = $3,
			tracking_number = $4, tracking_url = $5, estimated_delivery = $6,
			notes = $7, updated_at = NOW()
		WHERE id = $1
	`, order.ID, order.Status, order.Paid,
		order.TrackingNumber, order.TrackingURL, order.EstimatedDelivery, order.Notes)
	if err != nil {
		return fmt.Errorf("order repository: save %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: save rows affected %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SaveWithHistory атомарно сохраняет заказ и добавляет запись журнала.
// Запись журнала фиксируется тогда и только тогда, когда сохранён заказ.
func (r *OrderRepository) SaveWithHistory(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid = $3,
			tracking_number = $4, tracking_url = $5, estimated_delivery = $6,
			notes = $7, updated_at = NOW()
		WHERE id = $1
	`, order.ID, order.Status, order.Paid,
		order.TrackingNumber, order.TrackingURL, order.EstimatedDelivery, order.Notes)
	if err != nil {
		return fmt.Errorf("order repository: save with history %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: save with history rows affected %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	if err := insertHistoryTx(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}
