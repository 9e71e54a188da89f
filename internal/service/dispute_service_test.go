package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
)

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolution *string, resolvedAt *time.Time) error {
	args := m.Called(ctx, id, status, resolution, resolvedAt)
	return args.Error(0)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error {
	args := m.Called(ctx, order, entry)
	return args.Error(0)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) Save(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderStore) SaveWithHistory(ctx context.Context, order *models.Order, entry *models.OrderStatusHistory) error {
	args := m.Called(ctx, order, entry)
	return args.Error(0)
}

func deliveredOrder(buyerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		SellerID: uuid.New(),
		Status:   string(valueobject.OrderStatusDelivered),
		Subtotal: 500000,
		Total:    500000,
	}
}

func TestDisputeService_OpenDispute(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("GetOpenByOrderID", mock.Anything, order.ID).Return(nil, repository.ErrDisputeNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Dispute")).Return(nil)

	dispute, err := svc.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:       order.ID,
		ComplainantID: buyerID,
		Type:          models.DisputeTypeDamaged,
		Reason:        "кружка пришла с трещиной",
		Evidence:      []string{"https://cdn.example.com/photo1.jpg"},
	})

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.DisputeStatusOpen), dispute.Status)
	assert.Equal(t, models.DisputeTypeDamaged, dispute.Type)
	assert.Len(t, dispute.Evidence, 1)
	repo.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestDisputeService_OpenDispute_SellerMayOpen(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	order := deliveredOrder(uuid.New())
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("GetOpenByOrderID", mock.Anything, order.ID).Return(nil, repository.ErrDisputeNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Dispute")).Return(nil)

	dispute, err := svc.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:       order.ID,
		ComplainantID: order.SellerID,
		Type:          models.DisputeTypeOther,
		Reason:        "покупатель не выходит на связь",
	})

	assert.NoError(t, err)
	assert.Equal(t, order.SellerID, dispute.ComplainantID)
	repo.AssertExpectations(t)
}

func TestDisputeService_OpenDispute_PartiesOnly(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	order := deliveredOrder(uuid.New())
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:       order.ID,
		ComplainantID: uuid.New(),
		Type:          models.DisputeTypeOther,
		Reason:        "я просто мимо проходил",
	})

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_IneligibleOrder(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	order.Status = string(valueobject.OrderStatusPending)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:       order.ID,
		ComplainantID: buyerID,
		Type:          models.DisputeTypeNotReceived,
		Reason:        "заказ ещё не оплачен, но я волнуюсь",
	})

	assert.True(t, apperror.IsIneligibleOrder(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_SingleActive(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	existing := &models.Dispute{ID: uuid.New(), OrderID: order.ID, Status: string(valueobject.DisputeStatusOpen)}

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("GetOpenByOrderID", mock.Anything, order.ID).Return(existing, nil)

	_, err := svc.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:       order.ID,
		ComplainantID: buyerID,
		Type:          models.DisputeTypeNotAsDescribed,
		Reason:        "цвет не совпадает с фотографией",
	})

	assert.True(t, apperror.Is(err, apperror.ErrCodeConflict))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_Validation(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeRepo), new(mockOrderStore))
	ctx := context.Background()

	_, err := svc.OpenDispute(ctx, OpenDisputeInput{OrderID: uuid.New(), ComplainantID: uuid.New(), Type: "sabotage", Reason: "причина"})
	assert.True(t, apperror.IsValidation(err), "неизвестный тип спора должен отклоняться")

	_, err = svc.OpenDispute(ctx, OpenDisputeInput{OrderID: uuid.New(), ComplainantID: uuid.New(), Type: models.DisputeTypeOther, Reason: " "})
	assert.True(t, apperror.IsValidation(err), "пустая причина должна отклоняться")

	_, err = svc.OpenDispute(ctx, OpenDisputeInput{
		OrderID: uuid.New(), ComplainantID: uuid.New(), Type: models.DisputeTypeOther,
		Reason: "поломка", Evidence: []string{"not-a-url"},
	})
	assert.True(t, apperror.IsValidation(err), "некорректная ссылка на доказательство должна отклоняться")
}

func TestDisputeService_UpdateDispute_TakeUnderReview(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	order := deliveredOrder(uuid.New())
	dispute := &models.Dispute{ID: uuid.New(), OrderID: order.ID, Status: string(valueobject.DisputeStatusOpen)}

	repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
	repo.On("UpdateStatus", mock.Anything, dispute.ID, string(valueobject.DisputeStatusUnderReview), (*string)(nil), (*time.Time)(nil)).Return(nil)
	orders.On("GetByID", mock.Anything, dispute.OrderID).Return(order, nil)

	updated, err := svc.UpdateDispute(context.Background(), dispute.ID, Actor{ID: &order.SellerID, Role: valueobject.RoleSeller}, valueobject.DisputeStatusUnderReview, nil)

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.DisputeStatusUnderReview), updated.Status)
	assert.Nil(t, updated.ResolvedAt)
	repo.AssertExpectations(t)
}

func TestDisputeService_UpdateDispute_ForeignSeller(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	order := deliveredOrder(uuid.New())
	dispute := &models.Dispute{ID: uuid.New(), OrderID: order.ID, Status: string(valueobject.DisputeStatusOpen)}
	strangerID := uuid.New()

	repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
	orders.On("GetByID", mock.Anything, dispute.OrderID).Return(order, nil)

	_, err := svc.UpdateDispute(context.Background(), dispute.ID, Actor{ID: &strangerID, Role: valueobject.RoleSeller}, valueobject.DisputeStatusUnderReview, nil)

	assert.True(t, apperror.IsForbidden(err), "мастер чужого заказа не должен брать спор в работу")
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_UpdateDispute_ResolveRequiresText(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	dispute := &models.Dispute{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.DisputeStatusUnderReview)}
	adminID := uuid.New()
	admin := Actor{ID: &adminID, Role: valueobject.RoleAdmin}

	repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)

	_, err := svc.UpdateDispute(context.Background(), dispute.ID, admin, valueobject.DisputeStatusResolved, nil)
	assert.True(t, apperror.IsMissingResolution(err))

	empty := "   "
	_, err = svc.UpdateDispute(context.Background(), dispute.ID, admin, valueobject.DisputeStatusResolved, &empty)
	assert.True(t, apperror.IsMissingResolution(err))

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_UpdateDispute_Resolve(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)

	dispute := &models.Dispute{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.DisputeStatusUnderReview)}
	adminID := uuid.New()
	resolution := "возврат одобрен, мастер компенсирует доставку"

	repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
	repo.On("UpdateStatus", mock.Anything, dispute.ID, string(valueobject.DisputeStatusResolved), &resolution, mock.AnythingOfType("*time.Time")).Return(nil)
	orders.On("GetByID", mock.Anything, dispute.OrderID).Return(nil, repository.ErrOrderNotFound)

	updated, err := svc.UpdateDispute(context.Background(), dispute.ID, Actor{ID: &adminID, Role: valueobject.RoleAdmin}, valueobject.DisputeStatusResolved, &resolution)

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.DisputeStatusResolved), updated.Status)
	assert.Equal(t, &resolution, updated.Resolution)
	assert.NotNil(t, updated.ResolvedAt)
	repo.AssertExpectations(t)
}

func TestDisputeService_UpdateDispute_Rejections(t *testing.T) {
	repo := new(mockDisputeRepo)
	orders := new(mockOrderStore)
	svc := NewDisputeService(repo, orders)
	ctx := context.Background()

	adminID := uuid.New()
	admin := Actor{ID: &adminID, Role: valueobject.RoleAdmin}
	sellerID := uuid.New()
	seller := Actor{ID: &sellerID, Role: valueobject.RoleSeller}
	resolution := "закрыто"

	open := &models.Dispute{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.DisputeStatusOpen)}
	repo.On("GetByID", mock.Anything, open.ID).Return(open, nil)

	// Спор нельзя закрыть, минуя рассмотрение.
	_, err := svc.UpdateDispute(ctx, open.ID, admin, valueobject.DisputeStatusResolved, &resolution)
	assert.True(t, apperror.IsInvalidTransition(err))

	// Решение по спору выносит только администратор.
	review := &models.Dispute{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.DisputeStatusUnderReview)}
	repo.On("GetByID", mock.Anything, review.ID).Return(review, nil)
	_, err = svc.UpdateDispute(ctx, review.ID, seller, valueobject.DisputeStatusResolved, &resolution)
	assert.True(t, apperror.IsForbidden(err))

	// Повторный перевод в текущий статус безопасен.
	same, err := svc.UpdateDispute(ctx, open.ID, admin, valueobject.DisputeStatusOpen, nil)
	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.DisputeStatusOpen), same.Status)

	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
