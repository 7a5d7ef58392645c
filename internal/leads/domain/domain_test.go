package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePaidTransition(t *testing.T) {
	tests := []struct {
		name string
		plan *PaymentPlan
		want error
	}{
		{"nil plan", nil, ErrPlanRequired},
		{"empty name", &PaymentPlan{Price: 100}, ErrPlanRequired},
		{"unknown name", &PaymentPlan{Name: "GOLD", Price: 100}, ErrUnknownPlan},
		{"zero price", &PaymentPlan{Name: PlanPrime}, ErrInvalidPrice},
		{"negative price", &PaymentPlan{Name: PlanPrime, Price: -1}, ErrInvalidPrice},
		{"NaN price", &PaymentPlan{Name: PlanPrime, Price: math.NaN()}, ErrInvalidPrice},
		{"infinite price", &PaymentPlan{Name: PlanPrime, Price: math.Inf(1)}, ErrInvalidPrice},
		{"unknown currency", &PaymentPlan{Name: PlanPrime, Price: 10, Currency: "EUR"}, ErrUnknownCurrency},
		{"ok usd", &PaymentPlan{Name: PlanPrime, Price: 119, Currency: CurrencyUSD}, nil},
		{"ok default currency", &PaymentPlan{Name: PlanIgnite, Price: 0.01}, nil},
		{"ok lower-case name", &PaymentPlan{Name: "executive", Price: 5, Currency: CurrencyCAD}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaidTransition(tt.plan)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateClaimPlanAllowsNoPlan(t *testing.T) {
	assert.NoError(t, ValidateClaimPlan(nil))
	assert.ErrorIs(t, ValidateClaimPlan(&PaymentPlan{Name: PlanPrime, Price: 0}), ErrInvalidPrice)
}

func TestValidateTransition(t *testing.T) {
	plan := &PaymentPlan{Name: PlanPrime, Price: 119}

	assert.ErrorIs(t, ValidateTransition(StatusScheduled, StatusScheduled, nil), ErrSelfTransition)
	assert.ErrorIs(t, ValidateTransition(StatusScheduled, "archived", nil), ErrUnknownStatus)
	assert.ErrorIs(t, ValidateTransition(StatusCompleted, StatusPaid, nil), ErrPlanRequired)
	assert.NoError(t, ValidateTransition(StatusCompleted, StatusPaid, plan))

	// free re-labeling: every other pair is allowed, including out of paid
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			if from == to || to == StatusPaid {
				continue
			}
			assert.NoError(t, ValidateTransition(from, to, nil), "%s -> %s", from, to)
		}
	}
}

func TestAllowedTargetsExcludesCurrent(t *testing.T) {
	for _, current := range AllStatuses {
		targets := AllowedTargets(current)
		assert.Len(t, targets, len(AllStatuses)-1)
		assert.NotContains(t, targets, current)
	}
}

func TestParseStatusAliases(t *testing.T) {
	st, err := ParseStatus(" Cancelled ")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, st)

	st, err = ParseStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestProratedIncentiveExample(t *testing.T) {
	// PRIME: base 119 USD, 1000 INR per lead
	assert.InDelta(t, 500.0, ProratedIncentive(59.50, 119, 1000), 1e-9)
	assert.InDelta(t, 1000.0, ProratedIncentive(119, 119, 1000), 1e-9)
	assert.InDelta(t, 1000.0, ProratedIncentive(500, 119, 1000), 1e-9)
	assert.Equal(t, 0.0, ProratedIncentive(0, 119, 1000))
}

func TestProratedIncentiveMonotoneAndCapped(t *testing.T) {
	for _, base := range []float64{0, 0.5, 1, 49, 119, 999} {
		prev := -1.0
		for amount := -10.0; amount <= 1200; amount += 0.5 {
			got := ProratedIncentive(amount, base, 1000)
			assert.GreaterOrEqual(t, got, prev, "base=%v amount=%v", base, amount)
			assert.LessOrEqual(t, got, 1000.0)
			if amount >= math.Max(base, 1) {
				assert.InDelta(t, 1000.0, got, 1e-9)
			}
			prev = got
		}
	}
}

func TestProratedIncentiveZeroBaseDoesNotDivideByZero(t *testing.T) {
	got := ProratedIncentive(0.25, 0, 1000)
	assert.False(t, math.IsInf(got, 0))
	assert.False(t, math.IsNaN(got))
	assert.InDelta(t, 250.0, got, 1e-9)
	assert.Equal(t, 0.0, ProratedIncentive(math.NaN(), 119, 1000))
}

func TestLeadIncentive(t *testing.T) {
	cfg := &PlanConfig{PlanName: PlanPrime, BasePriceUSD: 119, IncentivePerLeadINR: 1000}

	got, err := LeadIncentive(&PaymentPlan{Name: PlanPrime, Price: 59.5, Currency: CurrencyUSD}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, got, 1e-9)

	got, err = LeadIncentive(nil, cfg)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = LeadIncentive(&PaymentPlan{Name: PlanPrime, Price: 59.5}, nil)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = LeadIncentive(&PaymentPlan{Name: PlanPrime, Price: 150, Currency: CurrencyCAD}, cfg)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestValidatePlanConfig(t *testing.T) {
	assert.NoError(t, ValidatePlanConfig(PlanConfig{PlanName: PlanPrime, BasePriceUSD: 119, IncentivePerLeadINR: 0}))
	assert.ErrorIs(t, ValidatePlanConfig(PlanConfig{PlanName: PlanPrime, BasePriceUSD: 0, IncentivePerLeadINR: 1}), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePlanConfig(PlanConfig{PlanName: PlanPrime, BasePriceUSD: 1, IncentivePerLeadINR: -1}), ErrInvalidIncentive)
	assert.ErrorIs(t, ValidatePlanConfig(PlanConfig{PlanName: "GOLD", BasePriceUSD: 1}), ErrUnknownPlan)
	assert.ErrorIs(t, ValidatePlanConfig(PlanConfig{PlanName: PlanPrime, BasePriceUSD: 1, Currency: CurrencyCAD}), ErrCurrencyMismatch)
}

func TestDisplayAmount(t *testing.T) {
	assert.Equal(t, "$1,119.50", PaymentPlan{Price: 1119.5, Currency: CurrencyUSD}.DisplayPrice())
	assert.Equal(t, "C$59.00", DisplayAmount(59, CurrencyCAD))
	assert.Equal(t, "$119.00", DisplayAmount(119, ""))
}

func TestLeadClaimHelpers(t *testing.T) {
	lead := Lead{}
	assert.False(t, lead.IsClaimed())

	lead.ClaimedBy = &ClaimedBy{Email: "asha@bda.io"}
	assert.True(t, lead.ClaimedByEmail(" ASHA@bda.io "))
	assert.False(t, lead.ClaimedByEmail("ravi@bda.io"))
	assert.Equal(t, "direct", NormalizeUTMSource("  "))
}
