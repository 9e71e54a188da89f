package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/logger"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
	"github.com/artmarket/handmade-backend/internal/validation"
)

// Actor описывает, от чьего имени выполняется команда жизненного цикла.
// Для системных переходов ID равен nil.
type Actor struct {
	ID   *uuid.UUID
	Role valueobject.ActorRole
}

// SystemActor возвращает актора для автоматических переходов.
func SystemActor() Actor {
	return Actor{Role: valueobject.RoleSystem}
}

// actorIsParty проверяет, что актор вправе распоряжаться заказом:
// админ и система работают с любым заказом, покупатель и мастер —
// только со своим.
func actorIsParty(actor Actor, order *models.Order) bool {
	switch actor.Role {
	case valueobject.RoleAdmin, valueobject.RoleSystem:
		return true
	case valueobject.RoleBuyer:
		return actor.ID != nil && *actor.ID == order.BuyerID
	case valueobject.RoleSeller:
		return actor.ID != nil && *actor.ID == order.SellerID
	}
	return false
}

// OrderRepository описывает взаимодействие сервиса с хранилищем заказов.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	SaveWithHistory(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error
}

// OrderHistoryRepository описывает доступ к журналу переходов.
type OrderHistoryRepository interface {
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
}

// OrderCache описывает кеш заказов. Кеш опционален: при nil сервис
// работает напрямую с хранилищем.
type OrderCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// OrderNotifier получает уведомления о смене статуса заказа.
type OrderNotifier interface {
	NotifyOrderStatus(ctx context.Context, order *models.Order, previous valueobject.OrderStatus, note *string)
}

// OrderService содержит бизнес-логику жизненного цикла заказов.
type OrderService struct {
	repo     OrderRepository
	history  OrderHistoryRepository
	cache    OrderCache
	notifier OrderNotifier
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(repo OrderRepository, history OrderHistoryRepository) *OrderService {
	return &OrderService{
		repo:    repo,
		history: history,
	}
}

// SetCache устанавливает кеш заказов.
func (s *OrderService) SetCache(cache OrderCache) {
	s.cache = cache
}

// SetNotifier устанавливает получателя уведомлений о смене статуса.
func (s *OrderService) SetNotifier(notifier OrderNotifier) {
	s.notifier = notifier
}

// OrderItemInput описывает позицию создаваемого заказа.
type OrderItemInput struct {
	ProductID uuid.UUID
	Title     string
	Quantity  int
	UnitPrice int64
}

// CreateOrderInput описывает входные данные для оформления заказа.
type CreateOrderInput struct {
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	PaymentMethod string
	Tax           int64
	ShippingCost  int64
	Discount      int64
	Notes         *string
	Items         []OrderItemInput
}

// ShippingInfoInput описывает данные отправления.
type ShippingInfoInput struct {
	TrackingNumber    *string
	TrackingURL       *string
	EstimatedDelivery *time.Time
}

// CreateOrder оформляет заказ в статусе pending и пишет первую запись журнала.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if _, ok := models.ValidPaymentMethods[in.PaymentMethod]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный способ оплаты")
	}
	if len(in.Items) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ должен содержать хотя бы одну позицию")
	}
	if in.BuyerID == in.SellerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "покупатель и продавец не могут совпадать")
	}

	var subtotal int64
	for _, item := range in.Items {
		if err := validation.ValidateNonEmpty("название позиции", item.Title); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		if item.Quantity <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "количество должно быть положительным")
		}
		if item.UnitPrice < 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "цена позиции не может быть отрицательной")
		}
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	amounts, err := valueobject.NewOrderAmounts(subtotal, in.Tax, in.ShippingCost, in.Discount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:            uuid.New(),
		Number:        generateOrderNumber(now),
		BuyerID:       in.BuyerID,
		SellerID:      in.SellerID,
		Status:        string(valueobject.OrderStatusPending),
		Subtotal:      amounts.Subtotal,
		Tax:           amounts.Tax,
		ShippingCost:  amounts.ShippingCost,
		Discount:      amounts.Discount,
		Total:         amounts.Total,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Items = make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	buyerID := in.BuyerID
	entry := &models.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    order.Status,
		ActorID:   &buyerID,
		ActorRole: string(valueobject.RoleBuyer),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, order, entry); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}

	return order, nil
}

// Transition переводит заказ в целевой статус от имени актора.
// Повторный перевод в текущий статус безопасен и не создаёт записей журнала.
// Смена статуса и запись журнала сохраняются в одной транзакции.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target valueobject.OrderStatus, actor Actor, note *string) (*models.Order, error) {
	if !target.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	if !actor.Role.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная роль")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := valueobject.OrderStatus(order.Status)
	if current == target {
		return order, nil
	}

	if !current.CanTransitionTo(target) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход %s → %s невозможен", current, target))
	}
	if !current.AllowedFor(target, actor.Role) {
		return nil, apperror.New(apperror.ErrCodeForbidden,
			fmt.Sprintf("роль %s не может выполнить переход %s → %s", actor.Role, current, target))
	}
	if !actorIsParty(actor, order) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "команда доступна только сторонам заказа")
	}

	updated := order.Clone()
	updated.Status = string(target)
	updated.UpdatedAt = time.Now()
	if target == valueobject.OrderStatusPaid {
		updated.Paid = true
	}

	entry := &models.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    string(target),
		Note:      note,
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		CreatedAt: updated.UpdatedAt,
	}

	if err := s.repo.SaveWithHistory(ctx, updated, entry); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить заказ")
	}

	s.invalidateCache(ctx, order.ID)
	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, updated, current, note)
	}

	return updated, nil
}

// Cancel отменяет заказ. Причина обязательна и попадает в журнал.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := valueobject.OrderStatus(order.Status)
	if current == valueobject.OrderStatusCancelled {
		return order, nil
	}
	if current.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeCannotCancel,
			fmt.Sprintf("заказ в статусе %s нельзя отменить", current))
	}

	return s.Transition(ctx, orderID, valueobject.OrderStatusCancelled, actor, &reason)
}

// MarkPaid подтверждает оплату заказа. Вызывается платёжным колбэком,
// поэтому переход выполняется от имени системы.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.Transition(ctx, orderID, valueobject.OrderStatusPaid, SystemActor(), nil)
}

// AttachShippingInfo прикрепляет данные отправления без записи в журнал:
// трек-номер не меняет статус заказа.
func (s *OrderService) AttachShippingInfo(ctx context.Context, orderID uuid.UUID, actor Actor, in ShippingInfoInput) (*models.Order, error) {
	if actor.Role != valueobject.RoleSeller && actor.Role != valueobject.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actorIsParty(actor, order) {
		return nil, apperror.ErrForbidden
	}

	current := valueobject.OrderStatus(order.Status)
	if !current.CanAttachShipping() {
		return nil, apperror.New(apperror.ErrCodeIneligibleOrder,
			fmt.Sprintf("данные отправления нельзя прикрепить к заказу в статусе %s", current))
	}

	updated := order.Clone()
	if in.TrackingNumber != nil {
		updated.TrackingNumber = in.TrackingNumber
	}
	if in.TrackingURL != nil {
		updated.TrackingURL = in.TrackingURL
	}
	if in.EstimatedDelivery != nil {
		updated.EstimatedDelivery = in.EstimatedDelivery
	}
	updated.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить заказ")
	}

	s.invalidateCache(ctx, order.ID)

	return updated, nil
}

// GetOrder возвращает заказ по ID, используя кеш при его наличии.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, order); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			}).Warn("order service: не удалось записать заказ в кеш")
		}
	}

	return order, nil
}

// GetOrderByNumber возвращает заказ по его номеру.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}

// GetHistory возвращает журнал переходов заказа в хронологическом порядке.
func (s *OrderService) GetHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}

	entries, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал заказа")
	}
	return entries, nil
}

// ListBuyerOrders возвращает заказы покупателя.
func (s *OrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.repo.ListByBuyer(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы покупателя")
	}
	return orders, nil
}

// ListSellerOrders возвращает заказы мастера.
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	orders, err := s.repo.ListBySeller(ctx, sellerID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказы мастера")
	}
	return orders, nil
}

func (s *OrderService) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}

func (s *OrderService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil && logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		}).Warn("order service: не удалось инвалидировать кеш заказа")
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// generateOrderNumber формирует человекочитаемый номер заказа вида HM-20260830-4F7A2C.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("HM-%s-%06X", now.Format("20060102"), rand.Intn(1<<24))
}
