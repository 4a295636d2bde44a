package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

func fixedOption(duration int, price float64) *domain.ServiceOption {
	return &domain.ServiceOption{
		ID:           1,
		Name:         "Consultation",
		DurationType: domain.DurationFixed,
		Duration:     duration,
		Price:        price,
	}
}

func flexibleOption(pricePerHour float64, min, max, step int) *domain.ServiceOption {
	return &domain.ServiceOption{
		ID:           2,
		Name:         "Studio Rental",
		DurationType: domain.DurationFlexible,
		PricePerHour: pricePerHour,
		MinDuration:  min,
		MaxDuration:  max,
		StepMinutes:  step,
	}
}

func TestCompute_FixedOptionWithAddon(t *testing.T) {
	// Option A: fixed 60min/$100; add-on X: 15min/$20.
	// Total is 75min/$120, the option's own contribution stays untouched.
	option := fixedOption(60, 100)
	addons := []domain.Addon{{ID: 10, Name: "X", Duration: 15, Price: 20}}

	quote, err := Compute(option, addons, nil)

	require.NoError(t, err)
	assert.Equal(t, 60, quote.OptionDuration)
	assert.Equal(t, 100.0, quote.OptionPrice)
	assert.Equal(t, 75, quote.TotalDuration)
	assert.Equal(t, 120.0, quote.TotalPrice)
}

func TestCompute_FixedOptionIgnoresRequestedDuration(t *testing.T) {
	option := fixedOption(60, 100)

	quote, err := Compute(option, nil, ptr.Ptr(240))

	require.NoError(t, err)
	assert.Equal(t, 60, quote.OptionDuration)
	assert.Equal(t, 100.0, quote.OptionPrice)
}

func TestCompute_FlexibleOptionProration(t *testing.T) {
	// Option B: flexible $60/h; requested total 90min; add-on Y: 30min/$10.
	// optionDuration = 90-30 = 60; optionPrice = (60/60)*60 - 10 = 50.
	option := flexibleOption(60, 30, 180, 30)
	addons := []domain.Addon{{ID: 11, Name: "Y", Duration: 30, Price: 10}}

	quote, err := Compute(option, addons, ptr.Ptr(90))

	require.NoError(t, err)
	assert.Equal(t, 60, quote.OptionDuration)
	assert.Equal(t, 50.0, quote.OptionPrice)
	assert.Equal(t, 90, quote.TotalDuration)
	assert.Equal(t, 60.0, quote.TotalPrice)
}

func TestCompute_ProrationInvariant(t *testing.T) {
	option := flexibleOption(90, 30, 240, 15)
	addons := []domain.Addon{
		{ID: 11, Duration: 30, Price: 10},
		{ID: 12, Duration: 15, Price: 5},
	}

	for _, total := range []int{60, 120, 240} {
		quote, err := Compute(option, addons, ptr.Ptr(total))
		require.NoError(t, err)
		// optionDuration + sum(addon.duration) == requestedTotalDuration
		assert.Equal(t, total, quote.OptionDuration+quote.AddonsDuration)
	}
}

func TestCompute_FlexibleRequiresTotalDuration(t *testing.T) {
	_, err := Compute(flexibleOption(60, 30, 180, 30), nil, nil)

	assert.ErrorIs(t, err, ErrTotalDurationRequired)
}

func TestCompute_FlexibleOutOfBounds(t *testing.T) {
	option := flexibleOption(60, 60, 180, 30)

	for _, total := range []int{30, 200, 75} { // below min, above max, off-step
		_, err := Compute(option, nil, ptr.Ptr(total))
		assert.ErrorIs(t, err, ErrTotalDurationNotAllowed, "total=%d", total)
	}
}

func TestCompute_AddonsExceedingTotalRejected(t *testing.T) {
	option := flexibleOption(60, 30, 180, 30)
	addons := []domain.Addon{{ID: 11, Duration: 120, Price: 10}}

	_, err := Compute(option, addons, ptr.Ptr(60))

	assert.ErrorIs(t, err, ErrAddonsExceedTotal)
}

func TestDiscountAmount(t *testing.T) {
	flat := &domain.Discount{Type: domain.DiscountAmount, Value: 15}
	pct := &domain.Discount{Type: domain.DiscountPercentage, Value: 25}

	assert.Equal(t, 15.0, DiscountAmount(120, flat))
	assert.Equal(t, 30.0, DiscountAmount(120, pct))
	assert.Equal(t, 0.0, DiscountAmount(120, nil))
}

func TestValidateDiscount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	base := domain.Discount{
		ID:       5,
		Code:     "SPRING10",
		Type:     domain.DiscountPercentage,
		Value:    10,
		StartsAt: &past,
		EndsAt:   &future,
	}

	t.Run("applicable", func(t *testing.T) {
		d := base
		assert.NoError(t, ValidateDiscount(&d, 1, 0, now))
	})

	t.Run("expired window", func(t *testing.T) {
		d := base
		expired := now.Add(-time.Hour)
		d.EndsAt = &expired
		assert.ErrorIs(t, ValidateDiscount(&d, 1, 0, now), ErrDiscountNotApplicable)
	})

	t.Run("global usage exhausted", func(t *testing.T) {
		d := base
		d.UsageLimit = ptr.Ptr(3)
		d.UsageCount = 3
		assert.ErrorIs(t, ValidateDiscount(&d, 1, 0, now), ErrDiscountNotApplicable)
	})

	t.Run("per-customer limit reached", func(t *testing.T) {
		d := base
		d.PerCustomerLimit = ptr.Ptr(1)
		assert.ErrorIs(t, ValidateDiscount(&d, 1, 1, now), ErrDiscountNotApplicable)
	})

	t.Run("scoped to another option", func(t *testing.T) {
		d := base
		d.OptionIDs = []int64{99}
		assert.ErrorIs(t, ValidateDiscount(&d, 1, 0, now), ErrDiscountNotApplicable)
	})
}
