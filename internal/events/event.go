// Package events defines the lead lifecycle events modules exchange.
// The bus itself lives in platform/events.
package events

import (
	"bda_portal_backend/platform/events"
	"bda_portal_backend/platform/logger"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus builds the process-local bus used by the API and the worker.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when the scheduling webhook stores a new booking.
type LeadCreated struct {
	BaseEvent
	BookingID   string `json:"bookingId"`
	ClientEmail string `json:"clientEmail"`
	UTMSource   string `json:"utmSource"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadClaimed is published when a BDA takes ownership of a lead.
type LeadClaimed struct {
	BaseEvent
	BookingID string `json:"bookingId"`
	ClaimedBy string `json:"claimedBy"`
	WithPlan  bool   `json:"withPlan"`
}

func (e LeadClaimed) EventName() string { return "leads.lead.claimed" }

// LeadUnclaimed is published when an admin releases a lead.
type LeadUnclaimed struct {
	BaseEvent
	BookingID     string `json:"bookingId"`
	PreviousOwner string `json:"previousOwner"`
	AdminEmail    string `json:"adminEmail"`
}

func (e LeadUnclaimed) EventName() string { return "leads.lead.unclaimed" }

// LeadStatusChanged is published after a status transition is stored.
type LeadStatusChanged struct {
	BaseEvent
	BookingID  string `json:"bookingId"`
	From       string `json:"from"`
	To         string `json:"to"`
	ActorEmail string `json:"actorEmail"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadsDeleted is published after all bookings of a client were purged.
type LeadsDeleted struct {
	BaseEvent
	ClientEmail string `json:"clientEmail"`
	Deleted     int64  `json:"deleted"`
	ActorEmail  string `json:"actorEmail"`
}

func (e LeadsDeleted) EventName() string { return "leads.deleted" }

// IncentiveConfigUpdated is published after an admin saves the plan config.
type IncentiveConfigUpdated struct {
	BaseEvent
	AdminEmail string `json:"adminEmail"`
}

func (e IncentiveConfigUpdated) EventName() string { return "incentives.config.updated" }
