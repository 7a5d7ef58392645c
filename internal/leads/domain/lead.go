package domain

import (
	"strings"
	"time"
)

// DefaultUTMSource is used when a lead arrives without attribution.
const DefaultUTMSource = "direct"

// Lead is a client booking as stored and served.
type Lead struct {
	BookingID               string       `json:"bookingId"`
	ClientName              string       `json:"clientName"`
	ClientEmail             string       `json:"clientEmail"`
	ClientPhone             *string      `json:"clientPhone,omitempty"`
	ScheduledEventStartTime *time.Time   `json:"scheduledEventStartTime,omitempty"`
	BookingCreatedAt        time.Time    `json:"bookingCreatedAt"`
	Status                  Status       `json:"bookingStatus"`
	PaymentPlan             *PaymentPlan `json:"paymentPlan,omitempty"`
	PlanDetails             *PlanDetails `json:"planDetails,omitempty"`
	ClaimedBy               *ClaimedBy   `json:"claimedBy,omitempty"`
	MeetingNotes            string       `json:"meetingNotes"`
	AnythingToKnow          string       `json:"anythingToKnow"`
	UTMSource               string       `json:"utmSource"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

// IsClaimed reports whether a BDA owns the lead.
func (l Lead) IsClaimed() bool {
	return l.ClaimedBy != nil && l.ClaimedBy.Email != ""
}

// ClaimedByEmail reports whether email owns the lead.
func (l Lead) ClaimedByEmail(email string) bool {
	return l.IsClaimed() && strings.EqualFold(l.ClaimedBy.Email, strings.TrimSpace(email))
}

// NormalizeEmail lower-cases and trims a client email, the natural key for search.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUTMSource falls back to DefaultUTMSource.
func NormalizeUTMSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return DefaultUTMSource
	}
	return source
}
