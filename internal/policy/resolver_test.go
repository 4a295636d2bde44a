package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func tier(minutes int, refundPercent float64) domain.PolicyTier {
	return domain.PolicyTier{
		MinutesToAppointment: minutes,
		Action:               domain.PolicyAllowed,
		RefundPercent:        refundPercent,
	}
}

func TestResolve_EmptyTiersReturnsDefault(t *testing.T) {
	def := tier(0, 100)

	got := Resolve(nil, 500, &def)

	require.NotNil(t, got)
	assert.Equal(t, def, *got)
}

func TestResolve_EmptyTiersNilDefault(t *testing.T) {
	assert.Nil(t, Resolve(nil, 500, nil))
}

func TestResolve_PicksSmallestQualifyingThreshold(t *testing.T) {
	tiers := []domain.PolicyTier{
		tier(1440, 100), // full refund with a day of notice
		tier(60, 50),    // half refund with an hour of notice
	}

	// 3 hours of notice qualifies for the 60-minute tier but not the
	// 1440-minute one; the tightest applicable restriction wins
	got := Resolve(tiers, 180, nil)

	require.NotNil(t, got)
	assert.Equal(t, 60, got.MinutesToAppointment)
	assert.Equal(t, 50.0, got.RefundPercent)
}

func TestResolve_UnsortedInput(t *testing.T) {
	// Same tiers in every order must resolve identically
	orders := [][]domain.PolicyTier{
		{tier(60, 50), tier(1440, 100), tier(240, 75)},
		{tier(1440, 100), tier(240, 75), tier(60, 50)},
		{tier(240, 75), tier(60, 50), tier(1440, 100)},
	}

	for _, tiers := range orders {
		got := Resolve(tiers, 300, nil)
		require.NotNil(t, got)
		assert.Equal(t, 60, got.MinutesToAppointment)
	}
}

func TestResolve_MoreNoticeQualifiesForLargerTier(t *testing.T) {
	tiers := []domain.PolicyTier{tier(60, 50), tier(1440, 100)}

	got := Resolve(tiers, 2000, nil)

	require.NotNil(t, got)
	// Both thresholds qualify; the smallest one still wins
	assert.Equal(t, 60, got.MinutesToAppointment)
}

func TestResolve_NoTierQualifiesFallsBackToDefault(t *testing.T) {
	// Adversarial case: 10 minutes of notice satisfies neither the 60- nor
	// the 1440-minute tier, so the result is the default (here absent)
	tiers := []domain.PolicyTier{tier(60, 50), tier(1440, 100)}

	assert.Nil(t, Resolve(tiers, 10, nil))
}

func TestResolve_ExactThresholdBoundary(t *testing.T) {
	tiers := []domain.PolicyTier{tier(60, 50)}

	got := Resolve(tiers, 60, nil)

	require.NotNil(t, got)
	assert.Equal(t, 60, got.MinutesToAppointment)
}

func TestResolveForRequest_Disabled(t *testing.T) {
	cfg := domain.PolicyConfig{Enabled: false, Tiers: []domain.PolicyTier{tier(60, 50)}}

	got, err := ResolveForRequest(cfg, time.Now().Add(2*time.Hour), time.Now())

	assert.ErrorIs(t, err, ErrPolicyDisabled)
	assert.Nil(t, got)
}

func TestResolveForRequest_PastAppointmentShortCircuits(t *testing.T) {
	lenient := tier(0, 100)
	cfg := domain.PolicyConfig{
		Enabled:     true,
		Tiers:       []domain.PolicyTier{tier(0, 100)},
		DefaultTier: &lenient,
	}

	now := time.Now()

	for _, offset := range []time.Duration{0, -time.Minute, -24 * time.Hour} {
		got, err := ResolveForRequest(cfg, now.Add(offset), now)
		require.NoError(t, err)
		require.NotNil(t, got)
		// Must be the synthetic zero-notice tier, never the lenient config
		assert.Equal(t, domain.PolicyNotAllowed, got.Action)
		assert.Equal(t, 0.0, got.RefundPercent)
	}
}

func TestResolveForRequest_ContinuousMinutes(t *testing.T) {
	cfg := domain.PolicyConfig{
		Enabled: true,
		Tiers:   []domain.PolicyTier{tier(60, 50)},
	}

	now := time.Now()

	// 60m30s of notice qualifies for the 60-minute tier
	got, err := ResolveForRequest(cfg, now.Add(60*time.Minute+30*time.Second), now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60, got.MinutesToAppointment)

	// 59m30s does not qualify; a caller pre-rounding to whole minutes
	// could resolve this boundary differently
	got, err = ResolveForRequest(cfg, now.Add(59*time.Minute+30*time.Second), now)
	require.NoError(t, err)
	assert.Nil(t, got)
}
