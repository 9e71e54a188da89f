package valueobject

import "testing"

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusProcessing},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusDelivered, OrderStatusRefunded},
	}

	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("переход %s → %s должен быть разрешён", tc.from, tc.to)
		}
	}

	denied := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusPaid, OrderStatusShipped},
		{OrderStatusPaid, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusPaid},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusProcessing},
		{OrderStatusDelivered, OrderStatusShipped},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusCancelled, OrderStatusRefunded},
		{OrderStatusRefunded, OrderStatusPending},
		{OrderStatusPaid, OrderStatusPending},
	}

	for _, tc := range denied {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("переход %s → %s должен быть запрещён", tc.from, tc.to)
		}
	}
}

func TestOrderStatus_TerminalHasNoManualExits(t *testing.T) {
	terminals := []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded}
	all := []OrderStatus{
		OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
	}

	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Errorf("%s должен быть терминальным", from)
		}
		for _, to := range all {
			if !from.CanTransitionTo(to) {
				continue
			}
			// Единственное исходящее ребро терминального статуса —
			// системный перевод delivered → refunded.
			if from == OrderStatusDelivered && to == OrderStatusRefunded {
				for _, role := range []ActorRole{RoleBuyer, RoleSeller, RoleAdmin} {
					if from.AllowedFor(to, role) {
						t.Errorf("роль %s не должна иметь права на %s → %s", role, from, to)
					}
				}
				if !from.AllowedFor(to, RoleSystem) {
					t.Errorf("система должна иметь право на %s → %s", from, to)
				}
				continue
			}
			t.Errorf("терминальный статус %s не должен иметь переход в %s", from, to)
		}
	}
}

func TestOrderStatus_AllowedFor(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		role    ActorRole
		allowed bool
	}{
		{"оплату подтверждает только система", OrderStatusPending, OrderStatusPaid, RoleSystem, true},
		{"покупатель не подтверждает оплату", OrderStatusPending, OrderStatusPaid, RoleBuyer, false},
		{"админ не подтверждает оплату", OrderStatusPending, OrderStatusPaid, RoleAdmin, false},
		{"мастер берёт заказ в работу", OrderStatusPaid, OrderStatusProcessing, RoleSeller, true},
		{"покупатель не берёт заказ в работу", OrderStatusPaid, OrderStatusProcessing, RoleBuyer, false},
		{"мастер отправляет заказ", OrderStatusProcessing, OrderStatusShipped, RoleSeller, true},
		{"система не отправляет заказ", OrderStatusProcessing, OrderStatusShipped, RoleSystem, false},
		{"покупатель отменяет оплаченный заказ", OrderStatusPaid, OrderStatusCancelled, RoleBuyer, true},
		{"система не отменяет заказы", OrderStatusPaid, OrderStatusCancelled, RoleSystem, false},
		{"доставку подтверждает мастер", OrderStatusShipped, OrderStatusDelivered, RoleSeller, true},
		{"доставку подтверждает система", OrderStatusShipped, OrderStatusDelivered, RoleSystem, true},
		{"покупатель не подтверждает доставку", OrderStatusShipped, OrderStatusDelivered, RoleBuyer, false},
		{"админ возвращает деньги", OrderStatusShipped, OrderStatusRefunded, RoleAdmin, true},
		{"мастер не возвращает деньги", OrderStatusShipped, OrderStatusRefunded, RoleSeller, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.AllowedFor(tc.to, tc.role); got != tc.allowed {
				t.Errorf("AllowedFor(%s → %s, %s) = %v, ожидалось %v", tc.from, tc.to, tc.role, got, tc.allowed)
			}
		})
	}
}

func TestOrderStatus_EligibilityChecks(t *testing.T) {
	disputeOK := map[OrderStatus]bool{
		OrderStatusPending:    false,
		OrderStatusPaid:       true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    true,
		OrderStatusDelivered:  true,
		OrderStatusCancelled:  false,
		OrderStatusRefunded:   false,
	}
	for status, want := range disputeOK {
		if got := status.CanOpenDispute(); got != want {
			t.Errorf("CanOpenDispute(%s) = %v, ожидалось %v", status, got, want)
		}
	}

	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded} {
		if status.CanRequestReturn() {
			t.Errorf("возврат по заказу в статусе %s должен быть запрещён", status)
		}
	}
	if !OrderStatusDelivered.CanRequestReturn() {
		t.Error("возврат по доставленному заказу должен быть разрешён")
	}

	if !OrderStatusProcessing.CanAttachShipping() || !OrderStatusShipped.CanAttachShipping() {
		t.Error("данные отправления прикрепляются при сборке и после отправки")
	}
	if OrderStatusPending.CanAttachShipping() || OrderStatusDelivered.CanAttachShipping() {
		t.Error("данные отправления нельзя прикрепить до оплаты или после доставки")
	}
}

func TestDisputeStatus_Transitions(t *testing.T) {
	if !DisputeStatusOpen.CanTransitionTo(DisputeStatusUnderReview) {
		t.Error("open → under_review должен быть разрешён")
	}
	if !DisputeStatusUnderReview.CanTransitionTo(DisputeStatusResolved) {
		t.Error("under_review → resolved должен быть разрешён")
	}
	if !DisputeStatusUnderReview.CanTransitionTo(DisputeStatusClosed) {
		t.Error("under_review → closed должен быть разрешён")
	}

	if DisputeStatusOpen.CanTransitionTo(DisputeStatusResolved) {
		t.Error("open → resolved должен быть запрещён: спор сначала берут в рассмотрение")
	}
	if DisputeStatusResolved.CanTransitionTo(DisputeStatusOpen) {
		t.Error("resolved — терминальный статус")
	}
	if DisputeStatusClosed.CanTransitionTo(DisputeStatusUnderReview) {
		t.Error("closed — терминальный статус")
	}

	if DisputeStatusOpen.AllowedFor(DisputeStatusUnderReview, RoleBuyer) {
		t.Error("покупатель не берёт спор в рассмотрение")
	}
	if !DisputeStatusOpen.AllowedFor(DisputeStatusUnderReview, RoleSeller) {
		t.Error("мастер может взять спор в рассмотрение")
	}
	if DisputeStatusUnderReview.AllowedFor(DisputeStatusResolved, RoleSeller) {
		t.Error("решение по спору выносит только админ")
	}
	if !DisputeStatusUnderReview.AllowedFor(DisputeStatusResolved, RoleAdmin) {
		t.Error("админ выносит решение по спору")
	}

	if !DisputeStatusResolved.RequiresResolution() || !DisputeStatusClosed.RequiresResolution() {
		t.Error("закрытие спора требует текста решения")
	}
	if DisputeStatusUnderReview.RequiresResolution() {
		t.Error("промежуточный статус не требует текста решения")
	}
}

func TestReturnStatus_Transitions(t *testing.T) {
	if !ReturnStatusRequested.CanTransitionTo(ReturnStatusApproved) {
		t.Error("requested → approved должен быть разрешён")
	}
	if !ReturnStatusRequested.CanTransitionTo(ReturnStatusRejected) {
		t.Error("requested → rejected должен быть разрешён")
	}
	if !ReturnStatusApproved.CanTransitionTo(ReturnStatusProductReturned) {
		t.Error("approved → product_returned должен быть разрешён")
	}
	if !ReturnStatusProductReturned.CanTransitionTo(ReturnStatusRefundProcessed) {
		t.Error("product_returned → refund_processed должен быть разрешён")
	}

	if ReturnStatusRequested.CanTransitionTo(ReturnStatusRefundProcessed) {
		t.Error("возврат средств без возврата товара должен быть запрещён")
	}
	if ReturnStatusRejected.CanTransitionTo(ReturnStatusApproved) {
		t.Error("rejected — терминальный статус")
	}
	if ReturnStatusRefundProcessed.CanTransitionTo(ReturnStatusRequested) {
		t.Error("refund_processed — терминальный статус")
	}

	if ReturnStatusRequested.AllowedFor(ReturnStatusApproved, RoleBuyer) {
		t.Error("покупатель не одобряет собственный возврат")
	}
	if !ReturnStatusRequested.AllowedFor(ReturnStatusApproved, RoleSeller) {
		t.Error("мастер одобряет возврат")
	}
	if ReturnStatusProductReturned.AllowedFor(ReturnStatusRefundProcessed, RoleSeller) {
		t.Error("возврат средств проводит только админ")
	}
	if !ReturnStatusProductReturned.AllowedFor(ReturnStatusRefundProcessed, RoleAdmin) {
		t.Error("админ проводит возврат средств")
	}
}
