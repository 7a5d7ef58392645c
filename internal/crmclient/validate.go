package crmclient

import (
	"errors"
	"strings"

	"bda_portal_backend/internal/leads/domain"
)

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	return nil
}

func validateBookingID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "bookingId", Message: "booking id is required"}
	}
	return nil
}

// validatePlan applies the paid guard to a plan. required is true when the
// target status is paid.
func validatePlan(plan *domain.PaymentPlan, required bool) error {
	if plan == nil && !required {
		return nil
	}
	var normalized *domain.PaymentPlan
	if plan != nil {
		p := plan.Normalized()
		normalized = &p
	}
	if err := domain.ValidatePaidTransition(normalized); err != nil {
		field := "plan"
		if errors.Is(err, domain.ErrInvalidPrice) {
			field = "plan.price"
		}
		return &ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}
