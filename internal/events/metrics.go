package events

import (
	"context"

	"bda_portal_backend/platform/metrics"
)

// SubscribeMetrics counts lead lifecycle events.
func SubscribeMetrics(bus Bus, m *metrics.Metrics) {
	if m == nil {
		return
	}
	bus.Subscribe(LeadClaimed{}.EventName(), HandlerFunc(func(context.Context, Event) error {
		m.LeadsClaimed.Inc()
		return nil
	}))
	bus.Subscribe(LeadUnclaimed{}.EventName(), HandlerFunc(func(context.Context, Event) error {
		m.LeadsUnclaimed.Inc()
		return nil
	}))
	bus.Subscribe(LeadStatusChanged{}.EventName(), HandlerFunc(func(_ context.Context, event Event) error {
		if e, ok := event.(LeadStatusChanged); ok {
			m.LeadStatusChanges.WithLabelValues(e.To).Inc()
		}
		return nil
	}))
	bus.Subscribe(LeadsDeleted{}.EventName(), HandlerFunc(func(_ context.Context, event Event) error {
		if e, ok := event.(LeadsDeleted); ok {
			m.LeadsDeleted.Add(float64(e.Deleted))
		}
		return nil
	}))
}
