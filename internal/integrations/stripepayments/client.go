package stripepayments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/refund"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Logger - интерфейс для логирования
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Client - клиент для создания возвратов через Stripe
type Client struct {
	enabled bool
	logger  Logger
}

// New создаёт клиента Stripe. Пустой ключ выключает клиента.
func New(secretKey string, logger Logger) *Client {
	if secretKey != "" {
		stripe.Key = secretKey
	}

	return &Client{
		enabled: secretKey != "",
		logger:  logger,
	}
}

// Enabled сообщает, сконфигурирован ли клиент
func (c *Client) Enabled() bool {
	return c.enabled
}

// CreateRefund создаёт возврат на стороне Stripe и возвращает идентификатор возврата провайдера.
// Сумма задаётся в основных единицах валюты платежа.
func (c *Client) CreateRefund(ctx context.Context, payment *domain.Payment, amount float64, reason string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}

	if payment.ProviderChargeID == nil || *payment.ProviderChargeID == "" {
		return "", fmt.Errorf("%w: payment_id=%d", ErrMissingCharge, payment.ID)
	}

	params := &stripe.RefundParams{
		Charge: stripe.String(*payment.ProviderChargeID),
		Amount: stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx

	if mapped := mapReason(reason); mapped != "" {
		params.Reason = stripe.String(mapped)
	}

	result, err := refund.New(params)
	if err != nil {
		c.logger.Error("[StripePayments.CreateRefund] Refund failed: payment_id=%d, charge=%s: %v",
			payment.ID, *payment.ProviderChargeID, err)
		return "", fmt.Errorf("%w: payment_id=%d: %v", ErrRefundFailed, payment.ID, err)
	}

	c.logger.Info("[StripePayments.CreateRefund] Refund created: payment_id=%d, provider_refund_id=%s, amount=%.2f",
		payment.ID, result.ID, amount)

	return result.ID, nil
}

// toMinorUnits переводит сумму в минимальные единицы валюты (копейки, центы)
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// mapReason отображает причину возврата на допустимые значения Stripe
func mapReason(reason string) string {
	switch strings.ToLower(reason) {
	case "duplicate":
		return string(stripe.RefundReasonDuplicate)
	case "fraudulent":
		return string(stripe.RefundReasonFraudulent)
	case "requested_by_customer", "":
		return string(stripe.RefundReasonRequestedByCustomer)
	default:
		return ""
	}
}
