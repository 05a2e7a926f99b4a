// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/events"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.AuthServiceConfig
	config.BootstrapConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP, auth service and guard settings).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Bootstraps is the per-user session bootstrap registry backing the guard.
	Bootstraps *bootstrap.Registry
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
