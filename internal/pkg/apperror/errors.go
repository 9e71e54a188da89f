package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Коды жизненного цикла заказа. Ошибки состояния (невозможный переход)
	// отделены от ошибок прав (не та роль), чтобы клиент мог показать
	// разные сообщения.
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeCannotCancel        ErrorCode = "CANNOT_CANCEL"
	ErrCodeIneligibleOrder     ErrorCode = "INELIGIBLE_ORDER"
	ErrCodeMissingResolution   ErrorCode = "MISSING_RESOLUTION"
	ErrCodeInvalidRefundAmount ErrorCode = "INVALID_REFUND_AMOUNT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeMissingResolution, ErrCodeInvalidRefundAmount:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition, ErrCodeCannotCancel, ErrCodeIneligibleOrder:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Is возвращает true, если err является AppError с указанным кодом.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return Is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

func IsInvalidTransition(err error) bool {
	return Is(err, ErrCodeInvalidTransition)
}

func IsCannotCancel(err error) bool {
	return Is(err, ErrCodeCannotCancel)
}

func IsIneligibleOrder(err error) bool {
	return Is(err, ErrCodeIneligibleOrder)
}

func IsMissingResolution(err error) bool {
	return Is(err, ErrCodeMissingResolution)
}

func IsInvalidRefundAmount(err error) bool {
	return Is(err, ErrCodeInvalidRefundAmount)
}

var (
	ErrOrderNotFound      = New(ErrCodeNotFound, "заказ не найден")
	ErrDisputeNotFound    = New(ErrCodeNotFound, "спор не найден")
	ErrReturnNotFound     = New(ErrCodeNotFound, "возврат не найден")
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")
)
