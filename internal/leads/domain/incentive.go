package domain

import "math"

// PlanConfig is the admin-managed incentive configuration for one plan.
type PlanConfig struct {
	PlanName            PlanName `json:"planName" yaml:"planName"`
	BasePriceUSD        float64  `json:"basePriceUsd" yaml:"basePriceUsd"`
	Currency            Currency `json:"currency" yaml:"currency"`
	IncentivePerLeadINR float64  `json:"incentivePerLeadInr" yaml:"incentivePerLeadInr"`
}

// ProratedIncentive returns incentivePerLeadINR scaled by amountPaid/basePriceUSD,
// capped at 1. A base price below 1 is clamped to 1.
func ProratedIncentive(amountPaid, basePriceUSD, incentivePerLeadINR float64) float64 {
	if math.IsNaN(amountPaid) || amountPaid <= 0 {
		return 0
	}
	if math.IsNaN(incentivePerLeadINR) || math.IsInf(incentivePerLeadINR, 0) {
		return 0
	}
	base := math.Max(basePriceUSD, 1)
	if math.IsNaN(base) {
		base = 1
	}
	ratio := math.Min(1, amountPaid/base)
	return incentivePerLeadINR * ratio
}

// LeadIncentive computes the incentive for a paid plan against its config.
// Missing plan or config yields 0. A non-USD payment is rejected with
// ErrCurrencyMismatch because the base price is in USD and no conversion exists.
func LeadIncentive(plan *PaymentPlan, cfg *PlanConfig) (float64, error) {
	if plan == nil || cfg == nil {
		return 0, nil
	}
	currency, err := ParseCurrency(string(plan.Currency))
	if err != nil {
		return 0, err
	}
	if currency != CurrencyUSD {
		return 0, ErrCurrencyMismatch
	}
	return ProratedIncentive(plan.Price, cfg.BasePriceUSD, cfg.IncentivePerLeadINR), nil
}

// ValidatePlanConfig checks an admin-submitted config row.
func ValidatePlanConfig(cfg PlanConfig) error {
	if _, err := ParsePlanName(string(cfg.PlanName)); err != nil {
		return err
	}
	if !validPrice(cfg.BasePriceUSD) {
		return ErrInvalidPrice
	}
	if math.IsNaN(cfg.IncentivePerLeadINR) || math.IsInf(cfg.IncentivePerLeadINR, 0) || cfg.IncentivePerLeadINR < 0 {
		return ErrInvalidIncentive
	}
	if cfg.Currency != "" && cfg.Currency != CurrencyUSD {
		return ErrCurrencyMismatch
	}
	return nil
}
