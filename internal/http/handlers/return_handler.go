package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/dto"
	"github.com/artmarket/handmade-backend/internal/http/handlers/common"
	"github.com/artmarket/handmade-backend/internal/service"
)

// ReturnHandler предоставляет HTTP слой возвратов товара.
type ReturnHandler struct {
	svc *service.ReturnService
}

// NewReturnHandler создаёт хэндлер.
func NewReturnHandler(svc *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

// RequestReturn обрабатывает POST /orders/:id/returns.
func (h *ReturnHandler) RequestReturn(c *gin.Context) {
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

	var req dto.RequestReturnRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ret, err := h.svc.RequestReturn(c.Request.Context(), service.RequestReturnInput{
		OrderID:     orderID,
		RequesterID: userID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ret)
}

// UpdateReturn обрабатывает PATCH /returns/:id.
func (h *ReturnHandler) UpdateReturn(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	returnID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateReturnRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	target, err := valueobject.NewReturnStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ret, err := h.svc.UpdateReturn(c.Request.Context(), actor, service.UpdateReturnInput{
		ReturnID:     returnID,
		Target:       target,
		Note:         req.Note,
		RefundAmount: req.RefundAmount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ret)
}

// GetReturn обрабатывает GET /returns/:id.
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	returnID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ret, err := h.svc.GetReturn(c.Request.Context(), returnID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ret)
}

// ListOrderReturns обрабатывает GET /orders/:id/returns.
func (h *ReturnHandler) ListOrderReturns(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	returns, err := h.svc.ListOrderReturns(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, returns)
}

// ListMyReturns обрабатывает GET /returns/my.
func (h *ReturnHandler) ListMyReturns(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	returns, err := h.svc.ListMyReturns(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: returns, Limit: limit, Offset: offset})
}
