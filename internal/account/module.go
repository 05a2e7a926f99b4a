// Package account provides the session/account bounded context module: the
// bootstrap snapshot endpoint, sign-out, password changes, and the
// session-event callback.
package account

import (
	"context"

	"workflow_portal_backend/internal/account/handler"
	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/validator"
)

// Module is the account bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	registry *bootstrap.Registry
}

// NewModule creates and initializes the account module with all its dependencies.
func NewModule(registry *bootstrap.Registry, cfg config.AuthServiceConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: handler.New(registry, cfg, eventBus, val, log), registry: registry}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "account"
}

// RegisterRoutes mounts account routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterProtected(ctx.Protected)

	// Password changes bypass the console gate so a forced-change user can
	// actually complete the flow; the session middleware still applies.
	sessionOnly := ctx.V1.Group("")
	sessionOnly.Use(ctx.AuthMiddleware)
	m.handler.RegisterSession(sessionOnly)

	// The auth-service callback authenticates by HMAC signature, rate limited
	// like the other unauthenticated auth surfaces.
	public := ctx.V1.Group("")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublic(public)
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.SessionRevoked{}.EventName(), m)
	bus.Subscribe(events.ProfileRoleChanged{}.EventName(), m)
	bus.Subscribe(events.ProfileUpdated{}.EventName(), m)
}

// Handle evicts cached bootstraps whose inputs changed out from under them.
// The next authenticated request re-creates the bootstrap from the server row.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SessionRevoked:
		m.registry.Remove(e.UserID)
	case events.ProfileRoleChanged:
		// Role drives console selection, so a stale cache would keep the old
		// console until the session expires.
		m.registry.Remove(e.UserID)
	case events.ProfileUpdated:
		// Self-updates already replace the cached profile on the request path;
		// evicting here would race that refresh.
		if e.UpdatedBy != e.UserID {
			m.registry.Remove(e.UserID)
		}
	}
	return nil
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
