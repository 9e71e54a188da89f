package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
	"github.com/artmarket/handmade-backend/internal/validation"
)

// DisputeRepository описывает хранилище споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolution *string, resolvedAt *time.Time) error
}

// DisputeNotifier получает уведомления о событиях споров.
type DisputeNotifier interface {
	NotifyDispute(ctx context.Context, dispute *models.Dispute, order *models.Order)
}

// DisputeService содержит бизнес-логику споров по заказам.
type DisputeService struct {
	repo     DisputeRepository
	orders   OrderRepository
	notifier DisputeNotifier
}

// NewDisputeService создаёт новый сервис споров.
func NewDisputeService(repo DisputeRepository, orders OrderRepository) *DisputeService {
	return &DisputeService{
		repo:   repo,
		orders: orders,
	}
}

// SetNotifier устанавливает получателя уведомлений о спорах.
func (s *DisputeService) SetNotifier(notifier DisputeNotifier) {
	s.notifier = notifier
}

// OpenDisputeInput описывает входные данные для открытия спора.
type OpenDisputeInput struct {
	OrderID       uuid.UUID
	ComplainantID uuid.UUID
	Type          string
	Reason        string
	Evidence      []string
}

// OpenDispute открывает спор по заказу. Спор может открыть любая из сторон
// заказа (покупатель или мастер) и только пока заказ оплачен и не закрыт.
// По заказу допустим один незакрытый спор одновременно.
func (s *DisputeService) OpenDispute(ctx context.Context, in OpenDisputeInput) (*models.Dispute, error) {
	if _, ok := models.ValidDisputeTypes[in.Type]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип спора")
	}
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
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

	if in.ComplainantID != order.BuyerID && in.ComplainantID != order.SellerID {
		return nil, apperror.ErrForbidden
	}

	status := valueobject.OrderStatus(order.Status)
	if !status.CanOpenDispute() {
		return nil, apperror.New(apperror.ErrCodeIneligibleOrder,
			fmt.Sprintf("по заказу в статусе %s нельзя открыть спор", status))
	}

	if existing, err := s.repo.GetOpenByOrderID(ctx, in.OrderID); err == nil && existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заказу уже открыт спор")
	} else if err != nil && !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить активные споры")
	}

	dispute := &models.Dispute{
		ID:            uuid.New(),
		OrderID:       in.OrderID,
		ComplainantID: in.ComplainantID,
		Type:          in.Type,
		Reason:        in.Reason,
		Evidence:      pq.StringArray(in.Evidence),
		Status:        string(valueobject.DisputeStatusOpen),
	}

	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать спор")
	}

	if s.notifier != nil {
		s.notifier.NotifyDispute(ctx, dispute, order)
	}

	return dispute, nil
}

// UpdateDispute переводит спор в целевой статус. Повторный перевод в текущий
// статус безопасен. Закрытие спора (resolved или closed) требует текста решения.
func (s *DisputeService) UpdateDispute(ctx context.Context, disputeID uuid.UUID, actor Actor, target valueobject.DisputeStatus, resolution *string) (*models.Dispute, error) {
	if !target.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}

	dispute, err := s.loadDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	current := valueobject.DisputeStatus(dispute.Status)
	if current == target {
		return dispute, nil
	}

	if !current.CanTransitionTo(target) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход спора %s → %s невозможен", current, target))
	}
	if !current.AllowedFor(target, actor.Role) {
		return nil, apperror.New(apperror.ErrCodeForbidden,
			fmt.Sprintf("роль %s не может выполнить переход спора %s → %s", actor.Role, current, target))
	}

	// Админ работает с любым спором, мастер — только со спором по своему заказу.
	if actor.Role != valueobject.RoleAdmin && actor.Role != valueobject.RoleSystem {
		order, err := s.orders.GetByID(ctx, dispute.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil, apperror.ErrOrderNotFound
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
		}
		if !actorIsParty(actor, order) {
			return nil, apperror.ErrForbidden
		}
	}

	if target.RequiresResolution() {
		if resolution == nil || strings.TrimSpace(*resolution) == "" {
			return nil, apperror.New(apperror.ErrCodeMissingResolution,
				"закрытие спора требует текста решения")
		}
	}

	var resolvedAt *time.Time
	if target.IsTerminal() {
		now := time.Now()
		resolvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, dispute.ID, string(target), resolution, resolvedAt); err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить спор")
	}

	dispute.Status = string(target)
	dispute.Resolution = resolution
	dispute.ResolvedAt = resolvedAt

	if s.notifier != nil {
		if order, err := s.orders.GetByID(ctx, dispute.OrderID); err == nil {
			s.notifier.NotifyDispute(ctx, dispute, order)
		}
	}

	return dispute, nil
}

// GetDispute возвращает спор по ID.
func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return s.loadDispute(ctx, id)
}

// ListOrderDisputes возвращает все споры по заказу.
func (s *DisputeService) ListOrderDisputes(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	disputes, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить споры заказа")
	}
	return disputes, nil
}

// ListMyDisputes возвращает споры, в которых пользователь участвует
// как заявитель, покупатель или продавец.
func (s *DisputeService) ListMyDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	limit, offset = normalizePage(limit, offset)
	disputes, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить споры пользователя")
	}
	return disputes, nil
}

func (s *DisputeService) loadDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить спор")
	}
	return dispute, nil
}
