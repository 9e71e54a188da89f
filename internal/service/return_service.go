package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/logger"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
	"github.com/artmarket/handmade-backend/internal/validation"
)

// ReturnRepository описывает хранилище заявок на возврат.
type ReturnRepository interface {
	Create(ctx context.Context, ret *models.Return) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Return, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Return, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Return, error)
	Save(ctx context.Context, ret *models.Return) error
}

// OrderTransitioner выполняет переходы заказа. Нужен сервису возвратов,
// чтобы обработанный возврат средств довёл заказ до refunded.
type OrderTransitioner interface {
	Transition(ctx context.Context, orderID uuid.UUID, target valueobject.OrderStatus, actor Actor, note *string) (*models.Order, error)
}

// ReturnNotifier получает уведомления о событиях возвратов.
type ReturnNotifier interface {
	NotifyReturn(ctx context.Context, ret *models.Return, order *models.Order)
}

// ReturnService содержит бизнес-логику возвратов товара.
type ReturnService struct {
	repo      ReturnRepository
	orders    OrderRepository
	lifecycle OrderTransitioner
	notifier  ReturnNotifier
}

// NewReturnService создаёт новый сервис возвратов.
func NewReturnService(repo ReturnRepository, orders OrderRepository, lifecycle OrderTransitioner) *ReturnService {
	return &ReturnService{
		repo:      repo,
		orders:    orders,
		lifecycle: lifecycle,
	}
}

// SetNotifier устанавливает получателя уведомлений о возвратах.
func (s *ReturnService) SetNotifier(notifier ReturnNotifier) {
	s.notifier = notifier
}

// RequestReturnInput описывает входные данные заявки на возврат.
type RequestReturnInput struct {
	OrderID     uuid.UUID
	RequesterID uuid.UUID
	Reason      string
	Description *string
	Evidence    []string
}

// RequestReturn создаёт заявку на возврат. Возврат доступен только покупателю
// и только по доставленному заказу. По заказу допустима одна незавершённая
// заявка одновременно.
func (s *ReturnService) RequestReturn(ctx context.Context, in RequestReturnInput) (*models.Return, error) {
	if _, ok := models.ValidReturnReasons[in.Reason]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная причина возврата")
	}
	if in.Description != nil {
		if err := validation.ValidateLength("описание", *in.Description, 0, validation.MaxNoteLength); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateEvidence(in.Evidence); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}

	if order.BuyerID != in.RequesterID {
		return nil, apperror.ErrForbidden
	}

	status := valueobject.OrderStatus(order.Status)
	if !status.CanRequestReturn() {
		return nil, apperror.New(apperror.ErrCodeIneligibleOrder,
			fmt.Sprintf("возврат по заказу в статусе %s невозможен", status))
	}

	if existing, err := s.repo.GetActiveByOrderID(ctx, in.OrderID); err == nil && existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заказу уже есть незавершённая заявка на возврат")
	} else if err != nil && !errors.Is(err, repository.ErrReturnNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить активные возвраты")
	}

	ret := &models.Return{
		ID:          uuid.New(),
		OrderID:     in.OrderID,
		RequesterID: in.RequesterID,
		Reason:      in.Reason,
		Description: in.Description,
		Evidence:    pq.StringArray(in.Evidence),
		Status:      string(valueobject.ReturnStatusRequested),
	}

	if err := s.repo.Create(ctx, ret); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заявку на возврат")
	}

	if s.notifier != nil {
		s.notifier.NotifyReturn(ctx, ret, order)
	}

	return ret, nil
}

// UpdateReturnInput описывает решение по заявке на возврат.
type UpdateReturnInput struct {
	ReturnID     uuid.UUID
	Target       valueobject.ReturnStatus
	Note         *string
	RefundAmount *int64
}

// UpdateReturn переводит заявку на возврат в целевой статус.
// Отклонение требует пояснения. Обработка возврата средств требует суммы
// в пределах суммы заказа и автоматически переводит заказ в refunded.
func (s *ReturnService) UpdateReturn(ctx context.Context, actor Actor, in UpdateReturnInput) (*models.Return, error) {
	if !in.Target.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус возврата")
	}

	ret, err := s.loadReturn(ctx, in.ReturnID)
	if err != nil {
		return nil, err
	}

	current := valueobject.ReturnStatus(ret.Status)
	if current == in.Target {
		// Повтор обработанного возврата не просто no-op: предыдущая попытка
		// могла упасть между записью заявки и переводом заказа, поэтому
		// убеждаемся, что заказ действительно дошёл до refunded.
		if current == valueobject.ReturnStatusRefundProcessed {
			if err := s.refundOrder(ctx, ret); err != nil {
				return nil, err
			}
		}
		return ret, nil
	}

	if !current.CanTransitionTo(in.Target) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход возврата %s → %s невозможен", current, in.Target))
	}
	if !current.AllowedFor(in.Target, actor.Role) {
		return nil, apperror.New(apperror.ErrCodeForbidden,
			fmt.Sprintf("роль %s не может выполнить переход возврата %s → %s", actor.Role, current, in.Target))
	}

	order, err := s.orders.GetByID(ctx, ret.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}

	if !actorIsParty(actor, order) {
		return nil, apperror.ErrForbidden
	}

	switch in.Target {
	case valueobject.ReturnStatusRejected:
		if in.Note == nil || strings.TrimSpace(*in.Note) == "" {
			return nil, apperror.New(apperror.ErrCodeMissingResolution,
				"отклонение возврата требует пояснения")
		}
		ret.RefundReason = in.Note
	case valueobject.ReturnStatusRefundProcessed:
		if in.RefundAmount == nil {
			return nil, apperror.New(apperror.ErrCodeInvalidRefundAmount, "сумма возврата обязательна")
		}
		amounts := orderAmountsOf(order)
		if !amounts.ValidRefund(*in.RefundAmount) {
			return nil, apperror.New(apperror.ErrCodeInvalidRefundAmount,
				fmt.Sprintf("сумма возврата %d вне допустимого диапазона 0..%d", *in.RefundAmount, order.Total))
		}
		ret.RefundAmount = in.RefundAmount
		if in.Note != nil {
			ret.RefundReason = in.Note
		}
	default:
		if in.Note != nil {
			ret.RefundReason = in.Note
		}
	}

	if actor.ID != nil {
		ret.ApproverID = actor.ID
	}

	// Заказ переводится в refunded до записи заявки: если перевод невозможен,
	// команда отклоняется целиком и заявка остаётся в product_returned.
	// Упавший после перевода Save безопасен: повтор команды застанет заказ
	// уже в refunded, переход отработает как no-op, и Save выполнится снова.
	if in.Target == valueobject.ReturnStatusRefundProcessed {
		if err := s.refundOrder(ctx, ret); err != nil {
			return nil, err
		}
	}
	ret.Status = string(in.Target)

	if err := s.repo.Save(ctx, ret); err != nil {
		if errors.Is(err, repository.ErrReturnNotFound) {
			return nil, apperror.ErrReturnNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить заявку на возврат")
	}

	if s.notifier != nil {
		s.notifier.NotifyReturn(ctx, ret, order)
	}

	return ret, nil
}

// refundOrder доводит заказ до refunded от имени системы: возврат средств —
// следствие решения по заявке, а не самостоятельная команда администратора.
func (s *ReturnService) refundOrder(ctx context.Context, ret *models.Return) error {
	note := fmt.Sprintf("возврат средств по заявке %s", ret.ID)
	if _, err := s.lifecycle.Transition(ctx, ret.OrderID, valueobject.OrderStatusRefunded, SystemActor(), &note); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"return_id": ret.ID,
				"order_id":  ret.OrderID,
				"error":     err.Error(),
			}).Error("return service: не удалось перевести заказ в refunded")
		}
		return err
	}
	return nil
}

// GetReturn возвращает заявку на возврат по ID.
func (s *ReturnService) GetReturn(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	return s.loadReturn(ctx, id)
}

// ListOrderReturns возвращает все заявки на возврат по заказу.
func (s *ReturnService) ListOrderReturns(ctx context.Context, orderID uuid.UUID) ([]models.Return, error) {
	returns, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить возвраты заказа")
	}
	return returns, nil
}

// ListMyReturns возвращает заявки, в которых пользователь участвует.
func (s *ReturnService) ListMyReturns(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Return, error) {
	limit, offset = normalizePage(limit, offset)
	returns, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить возвраты пользователя")
	}
	return returns, nil
}

func (s *ReturnService) loadReturn(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	ret, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReturnNotFound) {
			return nil, apperror.ErrReturnNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заявку на возврат")
	}
	return ret, nil
}

func orderAmountsOf(order *models.Order) valueobject.OrderAmounts {
	return valueobject.OrderAmounts{
		Subtotal:     order.Subtotal,
		Tax:          order.Tax,
		ShippingCost: order.ShippingCost,
		Discount:     order.Discount,
		Total:        order.Total,
	}
}
