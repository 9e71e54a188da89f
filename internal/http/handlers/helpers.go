package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artmarket/handmade-backend/internal/dto"
	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
)

// respondServiceError переводит ошибку сервисного слоя в HTTP ответ.
// AppError несёт статус и код, остальные ошибки маскируются.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Code),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "внутренняя ошибка сервера"})
}
