package valueobject

import "github.com/artmarket/handmade-backend/internal/pkg/apperror"

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

type disputeEdge struct {
	from DisputeStatus
	to   DisputeStatus
}

// Прямой переход open → resolved/closed запрещён: спор обязан пройти
// через рассмотрение.
var disputeEdgeActors = map[disputeEdge][]ActorRole{
	{DisputeStatusOpen, DisputeStatusUnderReview}:     {RoleSeller, RoleAdmin},
	{DisputeStatusUnderReview, DisputeStatusResolved}: {RoleAdmin},
	{DisputeStatusUnderReview, DisputeStatusClosed}:   {RoleAdmin},
}

func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusResolved, DisputeStatusClosed:
		return true
	}
	return false
}

func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusResolved || s == DisputeStatusClosed
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	_, ok := disputeEdgeActors[disputeEdge{s, next}]
	return ok
}

func (s DisputeStatus) AllowedFor(next DisputeStatus, role ActorRole) bool {
	actors, ok := disputeEdgeActors[disputeEdge{s, next}]
	return ok && role.in(actors)
}

// RequiresResolution возвращает true для статусов, переход в которые
// обязан сопровождаться текстом решения.
func (s DisputeStatus) RequiresResolution() bool {
	return s.IsTerminal()
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	return s, nil
}
