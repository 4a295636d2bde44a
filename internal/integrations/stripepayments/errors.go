package stripepayments

import "errors"

var (
	// ErrDisabled возвращается, когда stripe не сконфигурирован (нет секретного ключа)
	ErrDisabled = errors.New("stripepayments client: stripe is not configured")

	// ErrMissingCharge возвращается, когда у платежа нет идентификатора charge провайдера
	ErrMissingCharge = errors.New("stripepayments client: payment has no provider charge id")

	// ErrRefundFailed возвращается, когда создание возврата у провайдера завершилось ошибкой
	ErrRefundFailed = errors.New("stripepayments client: refund failed")
)
