// Package domain holds the lead lifecycle rules: statuses, payment plans,
// the transition policy and the prorated incentive. It has no I/O.
package domain

import (
	"errors"
	"strings"
)

// Status is the booking status of a lead.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusCanceled    Status = "canceled"
	StatusRescheduled Status = "rescheduled"
	StatusNoShow      Status = "no-show"
	StatusIgnored     Status = "ignored"
	StatusPaid        Status = "paid"
)

// AllStatuses lists statuses in display order.
var AllStatuses = []Status{
	StatusScheduled,
	StatusCompleted,
	StatusCanceled,
	StatusRescheduled,
	StatusNoShow,
	StatusIgnored,
	StatusPaid,
}

var ErrUnknownStatus = errors.New("unknown booking status")

// ParseStatus accepts the canonical values plus a few spellings seen in imports
// ("cancelled", "no_show", "noshow").
func ParseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "cancelled":
		s = string(StatusCanceled)
	case "no_show", "noshow":
		s = string(StatusNoShow)
	}
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownStatus
}

// Valid reports whether s is one of the canonical values.
func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// StatusValues returns the statuses as strings, for validator registration.
func StatusValues() []string {
	out := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		out[i] = string(s)
	}
	return out
}
