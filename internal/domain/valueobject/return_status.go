package valueobject

import "github.com/artmarket/handmade-backend/internal/pkg/apperror"

type ReturnStatus string

const (
	ReturnStatusRequested       ReturnStatus = "requested"
	ReturnStatusApproved        ReturnStatus = "approved"
	ReturnStatusRejected        ReturnStatus = "rejected"
	ReturnStatusProductReturned ReturnStatus = "product_returned"
	ReturnStatusRefundProcessed ReturnStatus = "refund_processed"
)

type returnEdge struct {
	from ReturnStatus
	to   ReturnStatus
}

// Физическое получение товара может подтвердить и система — по событию от
// службы доставки. Обработку возврата средств выполняет только администратор.
var returnEdgeActors = map[returnEdge][]ActorRole{
	{ReturnStatusRequested, ReturnStatusApproved}:              {RoleSeller, RoleAdmin},
	{ReturnStatusRequested, ReturnStatusRejected}:              {RoleSeller, RoleAdmin},
	{ReturnStatusApproved, ReturnStatusProductReturned}:        {RoleSeller, RoleAdmin, RoleSystem},
	{ReturnStatusProductReturned, ReturnStatusRefundProcessed}: {RoleAdmin},
}

func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusRequested, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusProductReturned, ReturnStatusRefundProcessed:
		return true
	}
	return false
}

func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusRefundProcessed
}

func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	_, ok := returnEdgeActors[returnEdge{s, next}]
	return ok
}

func (s ReturnStatus) AllowedFor(next ReturnStatus, role ActorRole) bool {
	actors, ok := returnEdgeActors[returnEdge{s, next}]
	return ok && role.in(actors)
}

func NewReturnStatus(status string) (ReturnStatus, error) {
	s := ReturnStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус возврата")
	}
	return s, nil
}
