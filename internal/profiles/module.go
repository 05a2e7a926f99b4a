// Package profiles provides the profiles bounded context module.
package profiles

import (
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/internal/profiles/handler"
	"workflow_portal_backend/internal/profiles/repository"
	"workflow_portal_backend/internal/profiles/service"
	"workflow_portal_backend/internal/storage"
	"workflow_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the profiles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	service *service.Service
}

// NewModule creates and initializes the profiles module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	storageSvc storage.Service,
	avatarBucket string,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, storageSvc, avatarBucket)
	h := handler.New(svc, val)

	return &Module{handler: h, repo: repo, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "profiles"
}

// SetSelfUpdater routes self-profile updates through the session bootstrap so
// the cached profile follows the server row. Called once the bootstrap
// registry exists.
func (m *Module) SetSelfUpdater(updater handler.SelfUpdater) {
	m.handler.SetSelfUpdater(updater)
}

// Repository returns the repository layer for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts profile routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterSelf(ctx.Protected)
	m.handler.RegisterAdmin(ctx.Admin.Group("/profiles"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
