package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/dto"
	"github.com/artmarket/handmade-backend/internal/http/handlers/common"
	"github.com/artmarket/handmade-backend/internal/service"
)

// DisputeHandler предоставляет HTTP слой споров по заказам.
type DisputeHandler struct {
	svc *service.DisputeService
}

// NewDisputeHandler создаёт хэндлер.
func NewDisputeHandler(svc *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{svc: svc}
}

// OpenDispute обрабатывает POST /orders/:id/disputes.
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.OpenDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.OpenDispute(c.Request.Context(), service.OpenDisputeInput{
		OrderID:       orderID,
		ComplainantID: userID,
		Type:          req.Type,
		Reason:        req.Reason,
		Evidence:      req.Evidence,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// UpdateDispute обрабатывает PATCH /disputes/:id.
func (h *DisputeHandler) UpdateDispute(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	target, err := valueobject.NewDisputeStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dispute, err := h.svc.UpdateDispute(c.Request.Context(), disputeID, actor, target, req.Resolution)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// GetDispute обрабатывает GET /disputes/:id.
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.GetDispute(c.Request.Context(), disputeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ListOrderDisputes обрабатывает GET /orders/:id/disputes.
func (h *DisputeHandler) ListOrderDisputes(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	disputes, err := h.svc.ListOrderDisputes(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, disputes)
}

// ListMyDisputes обрабатывает GET /disputes/my.
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.svc.ListMyDisputes(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: disputes, Limit: limit, Offset: offset})
}
