package crmclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSuperseded is returned by LatestOnly when a newer request replaced this one.
var ErrSuperseded = errors.New("request superseded by a newer one")

// FetchError is any failed exchange with the API.
type FetchError struct {
	Status  int
	Message string
	Details json.RawMessage
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError is raised locally; no request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
