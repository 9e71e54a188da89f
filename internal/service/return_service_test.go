package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/models"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/repository"
)

type mockReturnRepo struct {
	mock.Mock
}

func (m *mockReturnRepo) Create(ctx context.Context, ret *models.Return) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *mockReturnRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Return), args.Error(1)
}

func (m *mockReturnRepo) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Return), args.Error(1)
}

func (m *mockReturnRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Return, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Return), args.Error(1)
}

func (m *mockReturnRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Return, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Return), args.Error(1)
}

func (m *mockReturnRepo) Save(ctx context.Context, ret *models.Return) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

// recordingTransitioner фиксирует переходы заказа, запрошенные сервисом возвратов.
type recordingTransitioner struct {
	calls  int
	target valueobject.OrderStatus
	actor  Actor
	err    error
}

func (r *recordingTransitioner) Transition(_ context.Context, _ uuid.UUID, target valueobject.OrderStatus, actor Actor, _ *string) (*models.Order, error) {
	r.calls++
	r.target = target
	r.actor = actor
	if r.err != nil {
		return nil, r.err
	}
	return &models.Order{Status: string(target)}, nil
}

func TestReturnService_RequestReturn(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	svc := NewReturnService(repo, orders, &recordingTransitioner{})

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("GetActiveByOrderID", mock.Anything, order.ID).Return(nil, repository.ErrReturnNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Return")).Return(nil)

	desc := "ручка отклеилась на второй день"
	ret, err := svc.RequestReturn(context.Background(), RequestReturnInput{
		OrderID:     order.ID,
		RequesterID: buyerID,
		Reason:      models.ReturnReasonDefective,
		Description: &desc,
		Evidence:    []string{"https://cdn.example.com/defect.jpg"},
	})

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.ReturnStatusRequested), ret.Status)
	assert.Equal(t, models.ReturnReasonDefective, ret.Reason)
	assert.Nil(t, ret.RefundAmount)
	repo.AssertExpectations(t)
}

func TestReturnService_RequestReturn_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("только покупатель", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		svc := NewReturnService(repo, orders, &recordingTransitioner{})

		order := deliveredOrder(uuid.New())
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.RequestReturn(ctx, RequestReturnInput{OrderID: order.ID, RequesterID: order.SellerID, Reason: models.ReturnReasonOther})
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("только доставленный заказ", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		svc := NewReturnService(repo, orders, &recordingTransitioner{})

		buyerID := uuid.New()
		order := deliveredOrder(buyerID)
		order.Status = string(valueobject.OrderStatusShipped)
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

		_, err := svc.RequestReturn(ctx, RequestReturnInput{OrderID: order.ID, RequesterID: buyerID, Reason: models.ReturnReasonChangedMind})
		assert.True(t, apperror.IsIneligibleOrder(err))
	})

	t.Run("одна активная заявка", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		svc := NewReturnService(repo, orders, &recordingTransitioner{})

		buyerID := uuid.New()
		order := deliveredOrder(buyerID)
		active := &models.Return{ID: uuid.New(), OrderID: order.ID, Status: string(valueobject.ReturnStatusApproved)}
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		repo.On("GetActiveByOrderID", mock.Anything, order.ID).Return(active, nil)

		_, err := svc.RequestReturn(ctx, RequestReturnInput{OrderID: order.ID, RequesterID: buyerID, Reason: models.ReturnReasonWrongItem})
		assert.True(t, apperror.Is(err, apperror.ErrCodeConflict))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("неизвестная причина", func(t *testing.T) {
		svc := NewReturnService(new(mockReturnRepo), new(mockOrderStore), &recordingTransitioner{})
		_, err := svc.RequestReturn(ctx, RequestReturnInput{OrderID: uuid.New(), RequesterID: uuid.New(), Reason: "gift"})
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestReturnService_UpdateReturn_Approve(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{}
	svc := NewReturnService(repo, orders, lifecycle)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusRequested)}
	sellerID := order.SellerID

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*models.Return")).Return(nil)

	updated, err := svc.UpdateReturn(context.Background(), Actor{ID: &sellerID, Role: valueobject.RoleSeller}, UpdateReturnInput{
		ReturnID: ret.ID,
		Target:   valueobject.ReturnStatusApproved,
	})

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.ReturnStatusApproved), updated.Status)
	assert.Equal(t, &sellerID, updated.ApproverID)
	assert.Equal(t, 0, lifecycle.calls, "одобрение возврата не трогает статус заказа")
	repo.AssertExpectations(t)
}

func TestReturnService_UpdateReturn_RejectRequiresNote(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	svc := NewReturnService(repo, orders, &recordingTransitioner{})

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusRequested)}
	sellerID := order.SellerID
	seller := Actor{ID: &sellerID, Role: valueobject.RoleSeller}

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.UpdateReturn(context.Background(), seller, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRejected})
	assert.True(t, apperror.IsMissingResolution(err))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	note := "товар использовался по назначению, дефект не подтверждён"
	repo.On("Save", mock.Anything, mock.AnythingOfType("*models.Return")).Return(nil)
	updated, err := svc.UpdateReturn(context.Background(), seller, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRejected, Note: &note})
	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.ReturnStatusRejected), updated.Status)
	assert.Equal(t, &note, updated.RefundReason)
}

func TestReturnService_UpdateReturn_RefundAmountBounds(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{}
	svc := NewReturnService(repo, orders, lifecycle)
	ctx := context.Background()

	buyerID := uuid.New()
	order := deliveredOrder(buyerID) // Total = 500000
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusProductReturned)}
	adminID := uuid.New()
	admin := Actor{ID: &adminID, Role: valueobject.RoleAdmin}

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.UpdateReturn(ctx, admin, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRefundProcessed})
	assert.True(t, apperror.IsInvalidRefundAmount(err), "сумма возврата обязательна")

	tooMuch := int64(500001)
	_, err = svc.UpdateReturn(ctx, admin, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRefundProcessed, RefundAmount: &tooMuch})
	assert.True(t, apperror.IsInvalidRefundAmount(err), "сумма возврата не может превышать сумму заказа")

	negative := int64(-1)
	_, err = svc.UpdateReturn(ctx, admin, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRefundProcessed, RefundAmount: &negative})
	assert.True(t, apperror.IsInvalidRefundAmount(err))

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 0, lifecycle.calls)
}

func TestReturnService_UpdateReturn_RefundDrivesOrderToRefunded(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{}
	svc := NewReturnService(repo, orders, lifecycle)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID) // Total = 500000
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusProductReturned)}
	adminID := uuid.New()

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*models.Return")).Return(nil)

	fullRefund := int64(500000)
	updated, err := svc.UpdateReturn(context.Background(), Actor{ID: &adminID, Role: valueobject.RoleAdmin}, UpdateReturnInput{
		ReturnID:     ret.ID,
		Target:       valueobject.ReturnStatusRefundProcessed,
		RefundAmount: &fullRefund,
	})

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.ReturnStatusRefundProcessed), updated.Status)
	assert.Equal(t, &fullRefund, updated.RefundAmount)

	// Заказ переводится в refunded от имени системы.
	assert.Equal(t, 1, lifecycle.calls)
	assert.Equal(t, valueobject.OrderStatusRefunded, lifecycle.target)
	assert.Equal(t, valueobject.RoleSystem, lifecycle.actor.Role)
	assert.Nil(t, lifecycle.actor.ID)
	repo.AssertExpectations(t)
}

func TestReturnService_UpdateReturn_RefundFailureKeepsReturnOpen(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{err: apperror.New(apperror.ErrCodeDatabaseError, "хранилище недоступно")}
	svc := NewReturnService(repo, orders, lifecycle)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID) // Total = 500000
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusProductReturned)}
	adminID := uuid.New()

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	fullRefund := int64(500000)
	_, err := svc.UpdateReturn(context.Background(), Actor{ID: &adminID, Role: valueobject.RoleAdmin}, UpdateReturnInput{
		ReturnID:     ret.ID,
		Target:       valueobject.ReturnStatusRefundProcessed,
		RefundAmount: &fullRefund,
	})

	// Если заказ не удалось перевести в refunded, заявка не фиксируется:
	// она остаётся в product_returned и команду можно повторить.
	assert.Error(t, err)
	assert.Equal(t, 1, lifecycle.calls)
	assert.Equal(t, string(valueobject.ReturnStatusProductReturned), ret.Status)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReturnService_UpdateReturn_ReplayVerifiesRefund(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{}
	svc := NewReturnService(repo, orders, lifecycle)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	fullRefund := int64(500000)
	ret := &models.Return{
		ID:           uuid.New(),
		OrderID:      order.ID,
		RequesterID:  buyerID,
		Status:       string(valueobject.ReturnStatusRefundProcessed),
		RefundAmount: &fullRefund,
	}
	adminID := uuid.New()

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)

	got, err := svc.UpdateReturn(context.Background(), Actor{ID: &adminID, Role: valueobject.RoleAdmin}, UpdateReturnInput{
		ReturnID: ret.ID,
		Target:   valueobject.ReturnStatusRefundProcessed,
	})

	// Повтор обработанного возврата не пишет заявку повторно, но доводит
	// заказ до refunded, если предыдущая попытка оборвалась на полпути.
	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.ReturnStatusRefundProcessed), got.Status)
	assert.Equal(t, 1, lifecycle.calls)
	assert.Equal(t, valueobject.OrderStatusRefunded, lifecycle.target)
	assert.Equal(t, valueobject.RoleSystem, lifecycle.actor.Role)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReturnService_UpdateReturn_ForeignSeller(t *testing.T) {
	repo := new(mockReturnRepo)
	orders := new(mockOrderStore)
	lifecycle := &recordingTransitioner{}
	svc := NewReturnService(repo, orders, lifecycle)

	buyerID := uuid.New()
	order := deliveredOrder(buyerID)
	ret := &models.Return{ID: uuid.New(), OrderID: order.ID, RequesterID: buyerID, Status: string(valueobject.ReturnStatusRequested)}
	strangerID := uuid.New()

	repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	_, err := svc.UpdateReturn(context.Background(), Actor{ID: &strangerID, Role: valueobject.RoleSeller}, UpdateReturnInput{
		ReturnID: ret.ID,
		Target:   valueobject.ReturnStatusApproved,
	})

	assert.True(t, apperror.IsForbidden(err), "мастер чужого заказа не должен решать судьбу возврата")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 0, lifecycle.calls)
}

func TestReturnService_UpdateReturn_Rejections(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()
	admin := Actor{ID: &adminID, Role: valueobject.RoleAdmin}

	t.Run("возврат средств без возврата товара", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		svc := NewReturnService(repo, orders, &recordingTransitioner{})

		ret := &models.Return{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.ReturnStatusRequested)}
		repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)

		amount := int64(1000)
		_, err := svc.UpdateReturn(ctx, admin, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRefundProcessed, RefundAmount: &amount})
		assert.True(t, apperror.IsInvalidTransition(err))
	})

	t.Run("мастер не проводит возврат средств", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		svc := NewReturnService(repo, orders, &recordingTransitioner{})

		ret := &models.Return{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.ReturnStatusProductReturned)}
		repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)

		sellerID := uuid.New()
		amount := int64(1000)
		_, err := svc.UpdateReturn(ctx, Actor{ID: &sellerID, Role: valueobject.RoleSeller}, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusRefundProcessed, RefundAmount: &amount})
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("повтор безопасен", func(t *testing.T) {
		repo := new(mockReturnRepo)
		orders := new(mockOrderStore)
		lifecycle := &recordingTransitioner{}
		svc := NewReturnService(repo, orders, lifecycle)

		ret := &models.Return{ID: uuid.New(), OrderID: uuid.New(), Status: string(valueobject.ReturnStatusApproved)}
		repo.On("GetByID", mock.Anything, ret.ID).Return(ret, nil)

		got, err := svc.UpdateReturn(ctx, admin, UpdateReturnInput{ReturnID: ret.ID, Target: valueobject.ReturnStatusApproved})
		assert.NoError(t, err)
		assert.Equal(t, string(valueobject.ReturnStatusApproved), got.Status)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Equal(t, 0, lifecycle.calls)
	})
}
