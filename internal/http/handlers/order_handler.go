package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/dto"
	"github.com/artmarket/handmade-backend/internal/http/handlers/common"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
	"github.com/artmarket/handmade-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой жизненного цикла заказов.
type OrderHandler struct {
	svc *service.OrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// CreateOrder обрабатывает POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	buyerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		common.RespondBadRequest(c, "некорректный seller_id")
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			common.RespondBadRequest(c, "некорректный product_id")
			return
		}
		items = append(items, service.OrderItemInput{
			ProductID: productID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		BuyerID:       buyerID,
		SellerID:      sellerID,
		PaymentMethod: req.PaymentMethod,
		Tax:           req.Tax,
		ShippingCost:  req.ShippingCost,
		Discount:      req.Discount,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.requireParty(c, order.BuyerID, order.SellerID); err != nil {
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetHistory обрабатывает GET /orders/:id/history.
func (h *OrderHandler) GetHistory(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.requireParty(c, order.BuyerID, order.SellerID); err != nil {
		return
	}

	history, err := h.svc.GetHistory(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order, history))
}

// Transition обрабатывает POST /orders/:id/transition.
func (h *OrderHandler) Transition(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.TransitionOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	target, err := valueobject.NewOrderStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	order, err := h.svc.Transition(c.Request.Context(), orderID, target, actor, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CancelOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.svc.Cancel(c.Request.Context(), orderID, actor, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// AttachShippingInfo обрабатывает PUT /orders/:id/shipping.
func (h *OrderHandler) AttachShippingInfo(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ShippingInfoRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.svc.AttachShippingInfo(c.Request.Context(), orderID, actor, service.ShippingInfoInput{
		TrackingNumber:    req.TrackingNumber,
		TrackingURL:       req.TrackingURL,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListMyOrders обрабатывает GET /orders/my.
// Покупатель видит свои покупки, мастер — свои продажи.
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	var orders interface{}
	switch actor.Role {
	case valueobject.RoleSeller:
		orders, err = h.svc.ListSellerOrders(c.Request.Context(), *actor.ID, limit, offset)
	default:
		orders, err = h.svc.ListBuyerOrders(c.Request.Context(), *actor.ID, limit, offset)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: orders, Limit: limit, Offset: offset})
}

// MarkPaid обрабатывает POST /orders/:id/paid — колбэк платёжного шлюза.
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.svc.MarkPaid(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// requireParty проверяет, что текущий пользователь — сторона заказа или админ.
func (h *OrderHandler) requireParty(c *gin.Context, buyerID, sellerID uuid.UUID) error {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return err
	}

	if actor.Role == valueobject.RoleAdmin || *actor.ID == buyerID || *actor.ID == sellerID {
		return nil
	}

	respondServiceError(c, apperror.ErrForbidden)
	return apperror.ErrForbidden
}
