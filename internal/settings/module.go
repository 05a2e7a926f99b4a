// Package settings provides the settings bounded context module.
package settings

import (
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/internal/settings/handler"
	"workflow_portal_backend/internal/settings/service"
	"workflow_portal_backend/internal/settings/store"
	"workflow_portal_backend/platform/validator"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	store   *store.Store
	service *service.Service
}

// NewModule creates and initializes the settings module with all its dependencies.
func NewModule(settingStore *store.Store, eventBus events.Bus, val *validator.Validator) *Module {
	svc := service.New(settingStore, eventBus)
	h := handler.New(svc, val)

	return &Module{handler: h, store: settingStore, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterSelf(ctx.Protected)
	m.handler.RegisterAdmin(ctx.Admin.Group("/settings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
