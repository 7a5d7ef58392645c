package webhook

import (
	"regexp"
	"strings"

	"bda_portal_backend/internal/leads/domain"
)

// Question label patterns for the booking form.
var (
	phonePatterns   = []string{"phone", "phone number", "mobile", "whatsapp", "whatsapp number", "contact number"}
	notesPatterns   = []string{"anything to know", "anything we should know", "notes", "message", "comments"}
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneCharsRegex = regexp.MustCompile(`[^\d+]`)
)

// bookingIDFor prefers an explicit id, then the last segment of the invitee URI.
func bookingIDFor(p InviteePayload) string {
	if id := strings.TrimSpace(p.BookingID); id != "" {
		return id
	}
	uri := strings.TrimRight(strings.TrimSpace(p.URI), "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 && i < len(uri)-1 {
		return uri[i+1:]
	}
	return ""
}

// extractLead maps an invitee payload onto a lead. The booking id is left
// empty when the payload carries none.
func extractLead(p InviteePayload) domain.Lead {
	lead := domain.Lead{
		BookingID:               bookingIDFor(p),
		ClientName:              strings.TrimSpace(p.Name),
		ScheduledEventStartTime: p.ScheduledEvent.StartTime,
		UTMSource:               p.Tracking.UTMSource,
	}
	if email := strings.TrimSpace(p.Email); emailRegex.MatchString(email) {
		lead.ClientEmail = email
	}
	if p.CreatedAt != nil {
		lead.BookingCreatedAt = *p.CreatedAt
	}

	phone := p.TextReminderNumber
	notes := make([]string, 0)
	for _, qa := range p.Questions {
		answer := strings.TrimSpace(qa.Answer)
		if answer == "" {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(qa.Question))
		switch {
		case phone == "" && matchesAny(label, phonePatterns):
			phone = answer
		case matchesAny(label, notesPatterns):
			notes = append(notes, answer)
		}
	}
	if cleaned := normalizePhone(phone); cleaned != "" {
		lead.ClientPhone = &cleaned
	}
	lead.AnythingToKnow = strings.Join(notes, "\n")
	return lead
}

func matchesAny(label string, patterns []string) bool {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "", "?", "").Replace(label)
	for _, p := range patterns {
		if normalized == strings.ReplaceAll(p, " ", "") {
			return true
		}
	}
	return false
}

// normalizePhone keeps digits and a leading plus.
func normalizePhone(raw string) string {
	cleaned := phoneCharsRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return "+" + strings.ReplaceAll(cleaned[1:], "+", "")
	}
	return strings.ReplaceAll(cleaned, "+", "")
}
