// Package observability wires error tracking.
package observability

import (
	"time"

	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/logger"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// InitSentry configures the global Sentry client. It returns a flush func
// that is safe to call when Sentry is disabled.
func InitSentry(cfg config.ObservabilityConfig, log *logger.Logger) func() {
	noop := func() {}
	if cfg.GetSentryDSN() == "" {
		log.Info("sentry disabled")
		return noop
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.GetSentryDSN(),
		Environment:      cfg.GetEnv(),
		TracesSampleRate: cfg.GetSentryTracesSampleRate(),
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				delete(event.Request.Headers, "Authorization")
			}
			return event
		},
	})
	if err != nil {
		log.Warn("sentry init failed", "error", err)
		return noop
	}

	log.Info("sentry initialized", "environment", cfg.GetEnv())
	return func() { sentry.Flush(2 * time.Second) }
}

// GinMiddleware attaches a per-request hub. Panics are re-raised for gin.Recovery.
func GinMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// CaptureJobError reports a background job failure.
func CaptureJobError(job string, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("job", job)
		sentry.CaptureException(err)
	})
}
