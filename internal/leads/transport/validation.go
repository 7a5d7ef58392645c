package transport

import (
	"sync"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/validator"
)

var registerOnce sync.Once

// RegisterValidators adds the lead enum tags to the shared validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		statuses := append(domain.StatusValues(), "cancelled", "no_show", "noshow")
		err = validator.RegisterEnum("booking_status", statuses...)
	})
	return err
}
