package refund_payment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/applock"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	apptRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	paymentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type fakePaymentRepo struct {
	payments map[int64]*domain.Payment
	refunds  []*domain.Refund
	nextID   int64
}

func (f *fakePaymentRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Payment, error) {
	payment, ok := f.payments[id]
	if !ok || payment.TenantID != tenantID {
		return nil, paymentRepo.ErrPaymentNotFound
	}
	return payment, nil
}

func (f *fakePaymentRepo) SumRefunds(_ context.Context, paymentID int64) (float64, error) {
	total := 0.0
	for _, refund := range f.refunds {
		if refund.PaymentID == paymentID {
			total += refund.Amount
		}
	}
	return total, nil
}

func (f *fakePaymentRepo) CreateRefund(_ context.Context, refund *domain.Refund) (*domain.Refund, error) {
	f.nextID++
	refund.ID = f.nextID
	refund.CreatedAt = testNow
	f.refunds = append(f.refunds, refund)
	return refund, nil
}

type fakeApptRepo struct {
	appointments map[int64]*domain.Appointment
	events       []*domain.HistoryEvent
}

func (f *fakeApptRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.TenantID != tenantID {
		return nil, apptRepo.ErrAppointmentNotFound
	}
	return appt, nil
}

func (f *fakeApptRepo) AppendEvent(_ context.Context, event *domain.HistoryEvent) error {
	f.events = append(f.events, event)
	return nil
}

type inlineLocker struct {
	denied bool
}

func (l inlineLocker) WithLock(ctx context.Context, _ int64, fn func(ctx context.Context) error) error {
	if l.denied {
		return applock.ErrLockNotAcquired
	}
	return fn(ctx)
}

type serialLocker struct {
	mu sync.Mutex
}

func (l *serialLocker) WithLock(ctx context.Context, _ int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

type fakeProvider struct {
	enabled bool
	fail    bool
	calls   []float64
}

func (f *fakeProvider) Enabled() bool { return f.enabled }

func (f *fakeProvider) CreateRefund(_ context.Context, _ *domain.Payment, amount float64, _ string) (string, error) {
	f.calls = append(f.calls, amount)
	if f.fail {
		return "", errors.New("card declined")
	}
	return "re_123", nil
}

type fakePublisher struct {
	published []events.LifecycleEvent
}

func (f *fakePublisher) Publish(_ context.Context, event events.LifecycleEvent) error {
	f.published = append(f.published, event)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	uc        *UseCase
	payments  *fakePaymentRepo
	appts     *fakeApptRepo
	provider  *fakeProvider
	publisher *fakePublisher
	locker    *inlineLocker
}

func newFixture(provider *fakeProvider) *fixture {
	f := &fixture{
		payments: &fakePaymentRepo{payments: map[int64]*domain.Payment{
			5: {
				ID: 5, TenantID: 1, AppointmentID: 1,
				Method: "card", Provider: "stripe",
				ProviderChargeID: ptr.Ptr("ch_100"),
				Amount:           100, Currency: "USD",
			},
			6: {
				ID: 6, TenantID: 1, AppointmentID: 1,
				Method: "cash", Amount: 50, Currency: "USD",
			},
		}},
		appts: &fakeApptRepo{appointments: map[int64]*domain.Appointment{
			1: {ID: 1, TenantID: 1, Status: domain.StatusCancelled, TotalPrice: 150},
		}},
		provider:  provider,
		publisher: &fakePublisher{},
		locker:    &inlineLocker{},
	}
	if f.provider == nil {
		f.provider = &fakeProvider{enabled: true}
	}

	f.uc = NewUseCase(
		f.payments,
		f.appts,
		f.provider,
		f.locker,
		f.publisher,
		passthroughTxManager{},
		noopLogger{},
	)
	f.uc.timeProvider = fixedTime{now: testNow}
	return f
}

func refundRequest(paymentID int64, amount float64) *Request {
	return &Request{
		TenantID:      1,
		AppointmentID: 1,
		PaymentID:     paymentID,
		Amount:        amount,
		Actor:         domain.ActorStaff,
	}
}

func TestExecute_CardRefundGoesThroughProvider(t *testing.T) {
	f := newFixture(nil)

	resp, err := f.uc.Execute(context.Background(), refundRequest(5, 40))
	require.NoError(t, err)

	assert.Equal(t, 40.0, resp.Amount)
	assert.Equal(t, 40.0, resp.TotalRefunded)
	require.NotNil(t, resp.ProviderRefundID)
	assert.Equal(t, "re_123", *resp.ProviderRefundID)
	assert.Equal(t, []float64{40}, f.provider.calls)

	require.Len(t, f.appts.events, 1)
	assert.Equal(t, domain.EventPaymentRefunded, f.appts.events[0].Type)

	var breakdown domain.RefundBreakdown
	require.NoError(t, json.Unmarshal(f.appts.events[0].Payload, &breakdown))
	assert.Equal(t, int64(5), breakdown.PaymentID)
	assert.Equal(t, 40.0, breakdown.TotalRefunded)
}

func TestExecute_CashRefundSkipsProvider(t *testing.T) {
	f := newFixture(nil)

	resp, err := f.uc.Execute(context.Background(), refundRequest(6, 50))
	require.NoError(t, err)

	assert.Nil(t, resp.ProviderRefundID)
	assert.Empty(t, f.provider.calls)
}

func TestExecute_OverRemainingBalanceRejected(t *testing.T) {
	f := newFixture(nil)

	// first refund consumes 70 of the 100 balance
	_, err := f.uc.Execute(context.Background(), refundRequest(5, 70))
	require.NoError(t, err)

	// 40 > 30 remaining: rejected outright, never clamped
	_, err = f.uc.Execute(context.Background(), refundRequest(5, 40))
	assert.ErrorIs(t, err, ErrRefundExceedsBalance)
	require.Len(t, f.payments.refunds, 1)

	// the exact remainder still goes through
	resp, err := f.uc.Execute(context.Background(), refundRequest(5, 30))
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.TotalRefunded)
}

func TestExecute_ConcurrentRefundsCannotExceedBalance(t *testing.T) {
	f := newFixture(nil)
	f.uc.locker = &serialLocker{}

	// two racing full refunds of the same 100.00 payment: the balance
	// check must see the winner's refund, not the pre-race balance
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Execute(context.Background(), refundRequest(5, 100))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrRefundExceedsBalance)
		}
	}
	assert.Equal(t, 1, succeeded, "only one of the racing refunds may land")

	total := 0.0
	for _, refund := range f.payments.refunds {
		total += refund.Amount
	}
	assert.Equal(t, 100.0, total)
}

func TestExecute_LockHeldByAnotherOperation(t *testing.T) {
	f := newFixture(nil)
	f.locker.denied = true

	_, err := f.uc.Execute(context.Background(), refundRequest(5, 40))
	assert.ErrorIs(t, err, ErrConcurrentOperation)
	assert.Empty(t, f.payments.refunds)
}

func TestExecute_ProviderFailureAbortsRefund(t *testing.T) {
	f := newFixture(&fakeProvider{enabled: true, fail: true})

	_, err := f.uc.Execute(context.Background(), refundRequest(5, 40))
	assert.ErrorIs(t, err, ErrProviderRefundFailed)
	assert.Empty(t, f.payments.refunds, "no local record without a provider refund")
	assert.Empty(t, f.appts.events)
}

func TestExecute_Guards(t *testing.T) {
	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture(nil)

		_, err := f.uc.Execute(context.Background(), refundRequest(99, 10))
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("payment from another appointment", func(t *testing.T) {
		f := newFixture(nil)
		f.payments.payments[7] = &domain.Payment{
			ID: 7, TenantID: 1, AppointmentID: 2, Method: "cash", Amount: 10,
		}

		_, err := f.uc.Execute(context.Background(), refundRequest(7, 10))
		assert.ErrorIs(t, err, ErrPaymentMismatch)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := newFixture(nil)

		_, err := f.uc.Execute(context.Background(), refundRequest(5, 0))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestExecute_PublishesLifecycleEvent(t *testing.T) {
	f := newFixture(nil)

	_, err := f.uc.Execute(context.Background(), refundRequest(5, 25))
	require.NoError(t, err)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "appointment.payment_refunded", f.publisher.published[0].Type)
}
