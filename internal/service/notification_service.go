package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/logger"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
)

// События жизненного цикла, рассылаемые пользователям.
const (
	EventOrderStatusChanged = "order.status_changed"
	EventDisputeUpdated     = "dispute.updated"
	EventReturnUpdated      = "return.updated"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
// Сервис также выступает получателем событий жизненного цикла: он сохраняет
// уведомление и дублирует его в WebSocket при наличии hub.
type NotificationService struct {
	repo NotificationRepository
	hub  WSNotifier
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *NotificationService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateNotification создаёт новое уведомление.
func (s *NotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) (*models.Notification, error) {
	payload := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal payload %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Payload: payloadBytes,
		IsRead:  false,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return err
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// DeleteNotification удаляет уведомление.
func (s *NotificationService) DeleteNotification(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return err
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// NotifyOrderStatus уведомляет покупателя и мастера о смене статуса заказа.
func (s *NotificationService) NotifyOrderStatus(ctx context.Context, order *models.Order, previous valueobject.OrderStatus, note *string) {
	data := map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.Number,
		"from":         string(previous),
		"to":           order.Status,
	}
	if note != nil {
		data["note"] = *note
	}

	s.fanOut(ctx, EventOrderStatusChanged, data, order.BuyerID, order.SellerID)
}

// NotifyDispute уведомляет стороны заказа о событии спора.
func (s *NotificationService) NotifyDispute(ctx context.Context, dispute *models.Dispute, order *models.Order) {
	data := map[string]interface{}{
		"dispute_id": dispute.ID,
		"order_id":   order.ID,
		"status":     dispute.Status,
		"type":       dispute.Type,
	}

	s.fanOut(ctx, EventDisputeUpdated, data, order.BuyerID, order.SellerID)
}

// NotifyReturn уведомляет стороны заказа о событии возврата.
func (s *NotificationService) NotifyReturn(ctx context.Context, ret *models.Return, order *models.Order) {
	data := map[string]interface{}{
		"return_id": ret.ID,
		"order_id":  order.ID,
		"status":    ret.Status,
		"reason":    ret.Reason,
	}

	s.fanOut(ctx, EventReturnUpdated, data, order.BuyerID, order.SellerID)
}

// fanOut сохраняет уведомление каждому получателю и дублирует его в WebSocket.
// Ошибки доставки не прерывают команду, вызвавшую событие.
func (s *NotificationService) fanOut(ctx context.Context, event string, data map[string]interface{}, userIDs ...uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		if _, err := s.CreateNotification(ctx, userID, event, data); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"user_id": userID,
					"event":   event,
					"error":   err.Error(),
				}).Warn("notification service: не удалось сохранить уведомление")
			}
		}

		if s.hub != nil {
			if err := s.hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"user_id": userID,
					"event":   event,
					"error":   err.Error(),
				}).Debug("notification service: пользователь не подключён к WebSocket")
			}
		}
	}
}
