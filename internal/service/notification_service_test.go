package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
)

// fakeNotificationRepo — in-memory реализация NotificationRepository.
type fakeNotificationRepo struct {
	notifications map[uuid.UUID]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[uuid.UUID]*models.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	f.notifications[n.ID] = n
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, repository.ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationRepo) List(_ context.Context, userID uuid.UUID, _, _ int, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkAsRead(_ context.Context, id uuid.UUID) error {
	if n, ok := f.notifications[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.notifications[id]; !ok {
		return repository.ErrNotificationNotFound
	}
	delete(f.notifications, id)
	return nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) forUser(userID uuid.UUID) []*models.Notification {
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// fakeHub фиксирует рассылки в WebSocket.
type fakeHub struct {
	broadcasts map[uuid.UUID]int
}

func (h *fakeHub) BroadcastToUser(userID uuid.UUID, _ string, _ interface{}) error {
	if h.broadcasts == nil {
		h.broadcasts = make(map[uuid.UUID]int)
	}
	h.broadcasts[userID]++
	return nil
}

func TestNotificationService_NotifyOrderStatus(t *testing.T) {
	repo := newFakeNotificationRepo()
	hub := &fakeHub{}
	svc := NewNotificationService(repo)
	svc.SetHub(hub)

	order := &models.Order{
		ID:       uuid.New(),
		Number:   "HM-20260830-000002",
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   string(valueobject.OrderStatusPaid),
	}

	svc.NotifyOrderStatus(context.Background(), order, valueobject.OrderStatusPending, nil)

	// Уведомление получают обе стороны заказа.
	if got := len(repo.forUser(order.BuyerID)); got != 1 {
		t.Errorf("покупатель: ожидалось 1 уведомление, получено %d", got)
	}
	if got := len(repo.forUser(order.SellerID)); got != 1 {
		t.Errorf("мастер: ожидалось 1 уведомление, получено %d", got)
	}
	if hub.broadcasts[order.BuyerID] != 1 || hub.broadcasts[order.SellerID] != 1 {
		t.Error("уведомление должно дублироваться в WebSocket обеим сторонам")
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"data"`
	}
	n := repo.forUser(order.BuyerID)[0]
	if err := json.Unmarshal(n.Payload, &payload); err != nil {
		t.Fatalf("payload должен быть корректным JSON: %v", err)
	}
	if payload.Event != EventOrderStatusChanged {
		t.Errorf("event = %s, ожидался %s", payload.Event, EventOrderStatusChanged)
	}
	if payload.Data.From != string(valueobject.OrderStatusPending) || payload.Data.To != string(valueobject.OrderStatusPaid) {
		t.Errorf("payload должен содержать исходный и целевой статусы, получено %+v", payload.Data)
	}
}

func TestNotificationService_FanOutDeduplicates(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)

	// Совпадающие получатели не должны приводить к дублям.
	userID := uuid.New()
	order := &models.Order{ID: uuid.New(), BuyerID: userID, SellerID: userID, Status: string(valueobject.OrderStatusPaid)}

	svc.NotifyOrderStatus(context.Background(), order, valueobject.OrderStatusPending, nil)

	if got := len(repo.forUser(userID)); got != 1 {
		t.Errorf("ожидалось 1 уведомление, получено %d", got)
	}
}

func TestNotificationService_OwnershipChecks(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	ctx := context.Background()

	ownerID := uuid.New()
	strangerID := uuid.New()

	n, err := svc.CreateNotification(ctx, ownerID, EventDisputeUpdated, map[string]interface{}{"dispute_id": uuid.New()})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if err := svc.MarkAsRead(ctx, n.ID, strangerID); !apperror.IsForbidden(err) {
		t.Errorf("чужое уведомление нельзя отметить прочитанным, получено %v", err)
	}
	if err := svc.DeleteNotification(ctx, n.ID, strangerID); !apperror.IsForbidden(err) {
		t.Errorf("чужое уведомление нельзя удалить, получено %v", err)
	}

	if err := svc.MarkAsRead(ctx, n.ID, ownerID); err != nil {
		t.Errorf("владелец должен отметить уведомление прочитанным: %v", err)
	}
	count, err := svc.CountUnread(ctx, ownerID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if count != 0 {
		t.Errorf("непрочитанных = %d, ожидалось 0", count)
	}

	if err := svc.DeleteNotification(ctx, n.ID, ownerID); err != nil {
		t.Errorf("владелец должен удалить уведомление: %v", err)
	}
	if err := svc.MarkAsRead(ctx, n.ID, ownerID); !apperror.IsNotFound(err) {
		t.Errorf("ожидался NOT_FOUND, получено %v", err)
	}
}
