package valueobject

import "testing"

func TestNewOrderAmounts(t *testing.T) {
	amounts, err := NewOrderAmounts(450000, 22500, 35000, 7500)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if amounts.Total != 500000 {
		t.Errorf("Total = %d, ожидалось 500000", amounts.Total)
	}
	if err := amounts.Check(); err != nil {
		t.Errorf("согласованная раскладка не должна давать ошибку: %v", err)
	}

	if _, err := NewOrderAmounts(-1, 0, 0, 0); err == nil {
		t.Error("отрицательная сумма товаров должна отклоняться")
	}
	if _, err := NewOrderAmounts(100, 0, 0, -50); err == nil {
		t.Error("отрицательная скидка должна отклоняться")
	}
	if _, err := NewOrderAmounts(100, 0, 0, 200); err == nil {
		t.Error("скидка больше суммы заказа должна отклоняться")
	}

	// Нулевой итог допустим: скидка может покрыть заказ целиком.
	zero, err := NewOrderAmounts(100, 0, 0, 100)
	if err != nil {
		t.Fatalf("нулевой итог должен быть допустим: %v", err)
	}
	if zero.Total != 0 {
		t.Errorf("Total = %d, ожидалось 0", zero.Total)
	}
}

func TestOrderAmounts_Check(t *testing.T) {
	broken := OrderAmounts{Subtotal: 100, Tax: 10, ShippingCost: 5, Discount: 0, Total: 200}
	if err := broken.Check(); err == nil {
		t.Error("несогласованный итог должен давать ошибку")
	}

	negative := OrderAmounts{Subtotal: 100, Tax: -10, ShippingCost: 0, Discount: 0, Total: 90}
	if err := negative.Check(); err == nil {
		t.Error("отрицательный налог должен давать ошибку")
	}
}

func TestOrderAmounts_ValidRefund(t *testing.T) {
	amounts := OrderAmounts{Subtotal: 500000, Total: 500000}

	tests := []struct {
		amount int64
		valid  bool
	}{
		{0, true},
		{1, true},
		{250000, true},
		{500000, true},
		{500001, false},
		{-1, false},
	}
	for _, tc := range tests {
		if got := amounts.ValidRefund(tc.amount); got != tc.valid {
			t.Errorf("ValidRefund(%d) = %v, ожидалось %v", tc.amount, got, tc.valid)
		}
	}
}
