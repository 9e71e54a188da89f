package valueobject

import (
	"fmt"

	"github.com/artmarket/handmade-backend/internal/pkg/apperror"
)

// OrderAmounts хранит денежную раскладку заказа в копейках.
// Инвариант: Total == Subtotal + Tax + ShippingCost - Discount, Total >= 0.
type OrderAmounts struct {
	Subtotal     int64
	Tax          int64
	ShippingCost int64
	Discount     int64
	Total        int64
}

// NewOrderAmounts собирает раскладку и вычисляет итог.
func NewOrderAmounts(subtotal, tax, shippingCost, discount int64) (OrderAmounts, error) {
	if subtotal < 0 || tax < 0 || shippingCost < 0 || discount < 0 {
		return OrderAmounts{}, apperror.New(apperror.ErrCodeValidation, "составляющие суммы заказа не могут быть отрицательными")
	}

	total := subtotal + tax + shippingCost - discount
	if total < 0 {
		return OrderAmounts{}, apperror.New(apperror.ErrCodeValidation, "скидка не может превышать сумму заказа")
	}

	return OrderAmounts{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shippingCost,
		Discount:     discount,
		Total:        total,
	}, nil
}

// Check проверяет согласованность уже сохранённой раскладки.
func (a OrderAmounts) Check() error {
	if a.Subtotal < 0 || a.Tax < 0 || a.ShippingCost < 0 || a.Discount < 0 || a.Total < 0 {
		return apperror.New(apperror.ErrCodeValidation, "составляющие суммы заказа не могут быть отрицательными")
	}
	if a.Total != a.Subtotal+a.Tax+a.ShippingCost-a.Discount {
		return apperror.New(apperror.ErrCodeValidation, "итоговая сумма не согласована с составляющими")
	}
	return nil
}

// ValidRefund проверяет сумму возврата относительно итога заказа.
func (a OrderAmounts) ValidRefund(amount int64) bool {
	return amount >= 0 && amount <= a.Total
}

func (a OrderAmounts) String() string {
	return fmt.Sprintf("%.2f = %.2f + %.2f + %.2f - %.2f RUB",
		float64(a.Total)/100, float64(a.Subtotal)/100, float64(a.Tax)/100,
		float64(a.ShippingCost)/100, float64(a.Discount)/100)
}
