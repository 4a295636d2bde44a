package pricing

import "errors"

var (
	// ErrTotalDurationRequired возвращается, когда для гибкой опции не передана общая длительность
	ErrTotalDurationRequired = errors.New("pricing: totalDuration is required for flexible options")

	// ErrTotalDurationNotAllowed возвращается, когда общая длительность вне границ min/max/step опции
	ErrTotalDurationNotAllowed = errors.New("pricing: totalDuration is outside the option's allowed bounds")

	// ErrAddonsExceedTotal возвращается, когда суммарная длительность или цена аддонов
	// превышает запрошенный общий интервал гибкой опции
	ErrAddonsExceedTotal = errors.New("pricing: add-ons exceed the requested total duration")

	// ErrDiscountNotApplicable возвращается, когда скидка не проходит проверки
	// окна действия, лимитов использования или привязки к опции
	ErrDiscountNotApplicable = errors.New("pricing: discount is not applicable")
)
