package webhook

import (
	"time"
)

// Scheduling provider event names.
const (
	EventInviteeCreated  = "invitee.created"
	EventInviteeCanceled = "invitee.canceled"
)

// SchedulingEvent is the envelope the scheduling provider posts.
type SchedulingEvent struct {
	Event     string         `json:"event"`
	CreatedAt *time.Time     `json:"created_at"`
	Payload   InviteePayload `json:"payload"`
}

// InviteePayload describes the invitee of a booked event.
type InviteePayload struct {
	BookingID          string              `json:"booking_id"`
	URI                string              `json:"uri"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	TextReminderNumber string              `json:"text_reminder_number"`
	CreatedAt          *time.Time          `json:"created_at"`
	ScheduledEvent     ScheduledEvent      `json:"scheduled_event"`
	Questions          []QuestionAndAnswer `json:"questions_and_answers"`
	Tracking           Tracking            `json:"tracking"`
}

type ScheduledEvent struct {
	StartTime *time.Time `json:"start_time"`
}

type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Tracking struct {
	UTMSource string `json:"utm_source"`
}

// Response is returned for every accepted delivery.
type Response struct {
	BookingID string `json:"bookingId"`
	Outcome   string `json:"outcome"`
}

// Delivery outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeCanceled  = "canceled"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)
