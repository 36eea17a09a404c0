// Package technicians provides the technician directory module: provisioning,
// availability calendar management and best-match lookup.
package technicians

import (
	"time"

	apphttp "repair_backend/internal/http"
	"repair_backend/internal/technicians/handler"
	"repair_backend/internal/technicians/repository"
	"repair_backend/internal/technicians/service"
	"repair_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the technicians domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new technicians module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, loc *time.Location, phoneRegion string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, loc, phoneRegion)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "technicians"
}

// RegisterRoutes registers the module's routes under /api/v1/technicians and
// /api/v1/admin/technicians.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/technicians"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/technicians"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
