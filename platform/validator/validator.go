// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance used by handlers.
var Validate = validator.New()

var registerMu sync.Mutex

// RegisterEnum registers tag as a membership check against values.
// Empty strings pass so that optional fields can be combined with omitempty or required.
func RegisterEnum(tag string, values ...string) error {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}

	registerMu.Lock()
	defer registerMu.Unlock()
	return Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		_, ok := allowed[value]
		return ok
	})
}

// Messages flattens validation errors into field-level messages for responses.
func Messages(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		if err != nil {
			out["_"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
