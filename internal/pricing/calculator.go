package pricing

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Quote результат расчета длительности и цены бронирования
type Quote struct {
	OptionDuration int     // собственная длительность опции, минуты
	OptionPrice    float64 // собственная цена опции
	AddonsDuration int     // суммарная длительность аддонов
	AddonsPrice    float64 // суммарная цена аддонов
	TotalDuration  int     // полная длительность записи
	TotalPrice     float64 // полная цена до применения скидки
}

// Compute рассчитывает эффективную длительность и цену бронирования.
//
// Для fixed-опции длительность и цена опции берутся как есть, независимо от
// аддонов и requestedTotalDuration; аддоны добавляются сверху к итогу.
//
// Для flexible-опции клиент выбирает totalDuration на весь слот, и
// собственная длительность опции выводится вычитанием аддонов из этого
// конверта (проратация): аддоны вырезаются из общего времени и цены, а не
// добавляются сверху. Отрицательный результат проратации отклоняется
// с ErrAddonsExceedTotal.
func Compute(option *domain.ServiceOption, addons []domain.Addon, requestedTotalDuration *int) (*Quote, error) {
	addonsDuration := 0
	addonsPrice := 0.0
	for _, addon := range addons {
		addonsDuration += addon.Duration
		addonsPrice += addon.Price
	}

	if !option.IsFlexible() {
		return &Quote{
			OptionDuration: option.Duration,
			OptionPrice:    option.Price,
			AddonsDuration: addonsDuration,
			AddonsPrice:    addonsPrice,
			TotalDuration:  option.Duration + addonsDuration,
			TotalPrice:     option.Price + addonsPrice,
		}, nil
	}

	if requestedTotalDuration == nil {
		return nil, ErrTotalDurationRequired
	}
	total := *requestedTotalDuration

	if !option.AllowsTotalDuration(total) {
		return nil, fmt.Errorf("%w: duration=%d, bounds=[%d..%d] step=%d",
			ErrTotalDurationNotAllowed, total, option.MinDuration, option.MaxDuration, option.StepMinutes)
	}

	optionDuration := total - addonsDuration
	optionPrice := option.PricePerHour/domain.MinutesPerHour*float64(optionDuration) - addonsPrice

	if optionDuration < 0 || optionPrice < 0 {
		return nil, fmt.Errorf("%w: totalDuration=%d, addonsDuration=%d, addonsPrice=%.2f",
			ErrAddonsExceedTotal, total, addonsDuration, addonsPrice)
	}

	return &Quote{
		OptionDuration: optionDuration,
		OptionPrice:    optionPrice,
		AddonsDuration: addonsDuration,
		AddonsPrice:    addonsPrice,
		TotalDuration:  total,
		TotalPrice:     optionPrice + addonsPrice,
	}, nil
}

// DiscountAmount вычисляет размер скидки для данного промежуточного итога.
// Для amount-скидки это фиксированное значение, для percentage доля от
// subtotal. Процент валидируется (<= 100) при создании скидки, не здесь.
func DiscountAmount(subtotal float64, discount *domain.Discount) float64 {
	if discount == nil {
		return 0
	}
	switch discount.Type {
	case domain.DiscountPercentage:
		return subtotal * discount.Value / 100
	default:
		return discount.Value
	}
}

// ValidateDiscount проверяет применимость скидки к бронированию: окно
// действия, глобальный лимит использования и привязку к опции.
// Счетчик использований здесь НЕ изменяется: он коммитится только вместе
// с транзакцией бронирования.
func ValidateDiscount(discount *domain.Discount, optionID int64, customerUsage int, now time.Time) error {
	if !discount.IsWithinWindow(now) {
		return fmt.Errorf("%w: outside validity window", ErrDiscountNotApplicable)
	}
	if discount.IsExhausted() {
		return fmt.Errorf("%w: usage limit reached", ErrDiscountNotApplicable)
	}
	if discount.PerCustomerLimit != nil && customerUsage >= *discount.PerCustomerLimit {
		return fmt.Errorf("%w: per-customer limit reached", ErrDiscountNotApplicable)
	}
	if !discount.AppliesToOption(optionID) {
		return fmt.Errorf("%w: not valid for this option", ErrDiscountNotApplicable)
	}
	return nil
}
