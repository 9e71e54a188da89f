package valueobject

import "github.com/artmarket/handmade-backend/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type orderEdge struct {
	from OrderStatus
	to   OrderStatus
}

// orderEdgeActors — единственный источник правды о переходах заказа:
// ребро существует тогда и только тогда, когда у него есть хотя бы одна
// разрешённая роль. Возврат средств (refunded) доступен администратору
// напрямую и системе как следствие обработанного возврата товара.
var orderEdgeActors = map[orderEdge][]ActorRole{
	{OrderStatusPending, OrderStatusPaid}:         {RoleSystem},
	{OrderStatusPending, OrderStatusCancelled}:    {RoleBuyer, RoleSeller, RoleAdmin},
	{OrderStatusPaid, OrderStatusProcessing}:      {RoleSeller, RoleAdmin},
	{OrderStatusPaid, OrderStatusCancelled}:       {RoleBuyer, RoleSeller, RoleAdmin},
	{OrderStatusProcessing, OrderStatusShipped}:   {RoleSeller, RoleAdmin},
	{OrderStatusProcessing, OrderStatusCancelled}: {RoleBuyer, RoleSeller, RoleAdmin},
	{OrderStatusShipped, OrderStatusDelivered}:    {RoleSeller, RoleAdmin, RoleSystem},

	{OrderStatusPending, OrderStatusRefunded}:    {RoleAdmin, RoleSystem},
	{OrderStatusPaid, OrderStatusRefunded}:       {RoleAdmin, RoleSystem},
	{OrderStatusProcessing, OrderStatusRefunded}: {RoleAdmin, RoleSystem},
	{OrderStatusShipped, OrderStatusRefunded}:    {RoleAdmin, RoleSystem},
	// Доставленный заказ — терминальный для ручных команд, но обработанный
	// возврат товара обязан довести его до refunded. Ребро открыто только
	// для системы: администратор действует через заявку на возврат.
	{OrderStatusDelivered, OrderStatusRefunded}: {RoleSystem},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal возвращает true для статусов, закрытых для ручных команд.
// Единственное исключение из «нет исходящих переходов» — системное ребро
// delivered → refunded, доступное только через обработанный возврат.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo проверяет существование ребра независимо от роли.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	_, ok := orderEdgeActors[orderEdge{s, next}]
	return ok
}

// AllowedFor проверяет, что ребро существует и роль имеет на него право.
func (s OrderStatus) AllowedFor(next OrderStatus, role ActorRole) bool {
	actors, ok := orderEdgeActors[orderEdge{s, next}]
	return ok && role.in(actors)
}

// CanOpenDispute: спор допустим только по оплаченному и ещё не закрытому
// возвратом или отменой заказу. Статус delivered считается допустимым —
// претензия к качеству возможна и после доставки.
func (s OrderStatus) CanOpenDispute() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// CanRequestReturn: возврат возможен только по доставленному заказу.
func (s OrderStatus) CanRequestReturn() bool {
	return s == OrderStatusDelivered
}

// CanAttachShipping: трек-номер прикрепляется при сборке или после отправки.
func (s OrderStatus) CanAttachShipping() bool {
	return s == OrderStatusProcessing || s == OrderStatusShipped
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}
