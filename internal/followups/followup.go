// Package followups runs the post-meeting cadence for completed leads: a
// client email, a WhatsApp nudge and a call reminder for the owning BDA.
package followups

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelCall     Channel = "call"
)

type State string

const (
	StateScheduled State = "scheduled"
	StateSent      State = "sent"
	StateSkipped   State = "skipped"
	StateFailed    State = "failed"
)

// FollowUp is one scheduled touchpoint for a booking.
type FollowUp struct {
	ID        uuid.UUID `json:"id"`
	BookingID string    `json:"bookingId"`
	Channel   Channel   `json:"channel"`
	DueAt     time.Time `json:"dueAt"`
	State     State     `json:"state"`
	TaskID    *string   `json:"taskId,omitempty"`
	LastError *string   `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cadence is the delay of each step after the lead is completed.
type Cadence struct {
	Email    time.Duration
	WhatsApp time.Duration
	Call     time.Duration
}

// DefaultCadence is used for any step left at zero.
var DefaultCadence = Cadence{
	Email:    24 * time.Hour,
	WhatsApp: 72 * time.Hour,
	Call:     168 * time.Hour,
}

func (c Cadence) withDefaults() Cadence {
	if c.Email <= 0 {
		c.Email = DefaultCadence.Email
	}
	if c.WhatsApp <= 0 {
		c.WhatsApp = DefaultCadence.WhatsApp
	}
	if c.Call <= 0 {
		c.Call = DefaultCadence.Call
	}
	return c
}
