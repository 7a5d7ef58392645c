// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"bda_portal_backend/platform/config"
	"bda_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine.
	Engine *gin.Engine
	// API is the unauthenticated /api group.
	API *gin.RouterGroup
	// Protected is /api behind bearer auth for any dashboard role.
	Protected *gin.RouterGroup
	// Admin is /api/crm/admin behind bearer auth and the admin role.
	Admin *gin.RouterGroup
	// Config is the JWT configuration for auth middleware.
	Config config.JWTConfig
	// AuthMiddleware validates bearer tokens.
	AuthMiddleware gin.HandlerFunc
	// WebhookRateLimiter limits unauthenticated webhook traffic per IP.
	WebhookRateLimiter *httpkit.IPRateLimiter
}
