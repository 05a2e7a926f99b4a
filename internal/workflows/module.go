// Package workflows provides the workflows bounded context module.
package workflows

import (
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/internal/storage"
	"workflow_portal_backend/internal/workflows/handler"
	"workflow_portal_backend/internal/workflows/relay"
	"workflow_portal_backend/internal/workflows/repository"
	"workflow_portal_backend/internal/workflows/service"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the workflows bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the workflows module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	sender relay.Sender,
	eventBus events.Bus,
	storageSvc storage.Service,
	archiveBucket string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sender, eventBus, storageSvc, archiveBucket, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workflows"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts workflow routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterClient(ctx.Protected.Group("/workflows"))
	m.handler.RegisterAdmin(ctx.Admin.Group("/workflows"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
