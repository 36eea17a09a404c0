// Package appointments provides the appointments domain module: booking,
// cancelling and rescheduling technician visits.
package appointments

import (
	"repair_backend/internal/appointments/domain"
	"repair_backend/internal/appointments/handler"
	"repair_backend/internal/appointments/repository"
	"repair_backend/internal/appointments/service"
	"repair_backend/internal/events"
	apphttp "repair_backend/internal/http"
	"repair_backend/platform/logger"
	"repair_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the appointments domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired
func NewModule(
	pool *pgxpool.Pool,
	repairs service.RepairReader,
	technicians service.TechnicianReader,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
	policy domain.CancellationPolicy,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, repairs, technicians, bus, log, policy)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the module's routes under /api/v1/appointments
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
