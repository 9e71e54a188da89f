package valueobject

// ActorRole определяет, от чьего имени выполняется команда жизненного цикла.
// Роль приходит из слоя авторизации и принимается на веру: ядро не проверяет
// личность, только права роли на конкретный переход.
type ActorRole string

const (
	RoleBuyer  ActorRole = "buyer"
	RoleSeller ActorRole = "seller"
	RoleAdmin  ActorRole = "admin"
	// RoleSystem используется для автоматических переходов: подтверждение
	// оплаты, подтверждение доставки, возврат средств после обработки возврата.
	// Токены с этой ролью не выпускаются.
	RoleSystem ActorRole = "system"
)

func (r ActorRole) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

func (r ActorRole) in(roles []ActorRole) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
