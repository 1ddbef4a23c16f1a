package http

import (
	"recruit_portal_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	// The RouterContext provides access to shared middleware and configuration.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
// This avoids passing many parameters to each module's RegisterRoutes method.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// API is the /api route group.
	API *gin.RouterGroup
	// Protected is the authenticated route group under /api.
	Protected *gin.RouterGroup
	// Config is the JWT configuration for auth middleware (scoped access).
	Config config.JWTConfig
	// AuthMiddleware provides the authentication middleware.
	AuthMiddleware gin.HandlerFunc
}

// ModuleFunc adapts a name and a registration function to the Module
// interface; the composition root uses it to wrap feature handlers.
type ModuleFunc struct {
	ModuleName string
	Register   func(ctx *RouterContext)
}

// Name returns the module's identifier.
func (m ModuleFunc) Name() string { return m.ModuleName }

// RegisterRoutes mounts the module's routes.
func (m ModuleFunc) RegisterRoutes(ctx *RouterContext) { m.Register(ctx) }
