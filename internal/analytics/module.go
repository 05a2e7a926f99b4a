// Package analytics provides the analytics bounded context module.
package analytics

import (
	"context"

	"workflow_portal_backend/internal/analytics/handler"
	"workflow_portal_backend/internal/analytics/repository"
	"workflow_portal_backend/internal/analytics/service"
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the analytics module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// Service returns the service layer for the scheduler's rollup task.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRead(ctx.Protected.Group("/analytics"))
	m.handler.RegisterAdmin(ctx.Admin.Group("/analytics"))
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.WorkflowDeleted{}.EventName(), m)
}

// Handle processes domain events. When a workflow is removed its raw runs go
// with it; the daily rollups keep the aggregated history.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if e, ok := event.(events.WorkflowDeleted); ok {
		return m.service.RemoveWorkflowRuns(ctx, e.WorkflowID)
	}
	return nil
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
