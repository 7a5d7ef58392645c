package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrSelfTransition = errors.New("lead is already in this status")

// ValidatePaidTransition is the single guard for marking a lead paid:
// a known plan name and a positive finite price are required.
func ValidatePaidTransition(plan *PaymentPlan) error {
	if plan == nil || plan.Name == "" {
		return ErrPlanRequired
	}
	if _, err := ParsePlanName(string(plan.Name)); err != nil {
		return err
	}
	if !validPrice(plan.Price) {
		return ErrInvalidPrice
	}
	if _, err := ParseCurrency(string(plan.Currency)); err != nil {
		return err
	}
	return nil
}

// ValidateClaimPlan applies the same guard to the optional plan supplied at claim time.
func ValidateClaimPlan(plan *PaymentPlan) error {
	if plan == nil {
		return nil
	}
	return ValidatePaidTransition(plan)
}

// AllowedTargets returns every status except current. The status graph is a
// free re-labeling: any status may move to any other.
func AllowedTargets(current Status) []Status {
	out := make([]Status, 0, len(AllStatuses)-1)
	for _, s := range AllStatuses {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// ValidateTransition checks a status change. plan is the plan that will be on
// the lead after the change (request plan, else stored plan).
func ValidateTransition(current, target Status, plan *PaymentPlan) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}
	if current == target {
		return ErrSelfTransition
	}
	if target == StatusPaid {
		return ValidatePaidTransition(plan)
	}
	return nil
}

// TriggersFollowUp reports whether moving into target starts the follow-up cadence.
func TriggersFollowUp(target Status) bool {
	return target == StatusCompleted
}

// ClaimedBy records exclusive ownership of a lead by one BDA.
type ClaimedBy struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ClaimedAt time.Time `json:"claimedAt"`
}
