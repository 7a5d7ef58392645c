// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.ObservabilityConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Metrics  *metrics.Metrics
	Modules  []Module
}
